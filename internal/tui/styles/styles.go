package styles

import (
	"github.com/bcdxn/f1sim/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type Style struct {
	Color         Color
	Doc           lipgloss.Style
	TitleBar      lipgloss.Style
	SubtitleBar   lipgloss.Style
	ToastMsgTitle lipgloss.Style
	ToastMsgBody  lipgloss.Style
	FlagBanner    lipgloss.Style
	Green         lipgloss.Style
	Purple        lipgloss.Style
	Red           lipgloss.Style
	Yellow        lipgloss.Style
	Subtle        lipgloss.Style
}

type Color struct {
	Red               lipgloss.Color
	Yellow            lipgloss.Color
	Green             lipgloss.Color
	Purple            lipgloss.Color
	Orange            lipgloss.Color
	HardTire          lipgloss.Color
	MediumTire        lipgloss.Color
	SoftTire          lipgloss.Color
	FiaBlue           lipgloss.Color
	Light             lipgloss.Color
	Dark              lipgloss.Color
	Subtle            lipgloss.AdaptiveColor
	PrimaryForeground lipgloss.AdaptiveColor
}

func Default() *Style {
	red := lipgloss.Color("#CF040E")
	yellow := lipgloss.Color("#FAD105")
	green := lipgloss.Color("#17C81D")
	purple := lipgloss.Color("#DA0ED3")
	orange := lipgloss.Color("#F77C14")
	hard := lipgloss.Color("#D4DFE8")
	medium := lipgloss.Color("#E4E344")
	soft := lipgloss.Color("#FA5A55")
	fiaBlue := lipgloss.Color("#0B203B")
	light := lipgloss.Color("#D1D4DD")
	dark := lipgloss.Color("#383838")
	subtle := lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	primaryForeground := lipgloss.AdaptiveColor{Light: "#383838", Dark: "#D9DCCF"}

	return &Style{
		Color: Color{
			Red:               red,
			Yellow:            yellow,
			Green:             green,
			Purple:            purple,
			Orange:            orange,
			HardTire:          hard,
			MediumTire:        medium,
			SoftTire:          soft,
			FiaBlue:           fiaBlue,
			Light:             light,
			Dark:              dark,
			Subtle:            subtle,
			PrimaryForeground: primaryForeground,
		},
		Doc: lipgloss.NewStyle().Margin(1, 1),
		TitleBar: lipgloss.NewStyle().
			Align(lipgloss.Center).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(primaryForeground).
			Foreground(primaryForeground),
		SubtitleBar: lipgloss.NewStyle().
			Align(lipgloss.Center).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(primaryForeground).
			Foreground(primaryForeground),
		// race control message banner
		ToastMsgTitle: lipgloss.NewStyle().
			AlignVertical(lipgloss.Center).
			Background(fiaBlue).
			Bold(true).
			Foreground(light).
			Padding(1, 2),
		ToastMsgBody: lipgloss.NewStyle().
			AlignVertical(lipgloss.Center).
			Background(light).
			Foreground(dark).
			Padding(1, 2),
		FlagBanner: lipgloss.NewStyle().
			Align(lipgloss.Center).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		Green:  lipgloss.NewStyle().Foreground(green),
		Purple: lipgloss.NewStyle().Foreground(purple),
		Red:    lipgloss.NewStyle().Foreground(red),
		Yellow: lipgloss.NewStyle().Foreground(yellow),
		Subtle: lipgloss.NewStyle().Foreground(subtle),
	}
}

// Tire returns the style used to render a tire compound in its official color.
func (s *Style) Tire(c domain.TireCompound) lipgloss.Style {
	switch c {
	case domain.TireCompoundSoft:
		return lipgloss.NewStyle().Foreground(s.Color.SoftTire).Bold(true)
	case domain.TireCompoundMedium:
		return lipgloss.NewStyle().Foreground(s.Color.MediumTire).Bold(true)
	case domain.TireCompoundHard:
		return lipgloss.NewStyle().Foreground(s.Color.HardTire).Bold(true)
	}
	return s.Subtle
}

// Status returns the style used for a driver status on the timing board.
func (s *Style) Status(st domain.DriverStatus) lipgloss.Style {
	switch st {
	case domain.DriverStatusDNF:
		return s.Red
	case domain.DriverStatusPit:
		return lipgloss.NewStyle().Foreground(s.Color.Orange)
	case domain.DriverStatusSafetyCar, domain.DriverStatusYellowFlag:
		return s.Yellow
	case domain.DriverStatusRacing:
		return s.Green
	}
	return s.Subtle
}
