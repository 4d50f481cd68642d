package settings

// Theme selects the color scheme
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Density selects the spacing of the interface
type Density string

const (
	DensityComfortable Density = "comfortable"
	DensityCompact     Density = "compact"
	DensitySpacious    Density = "spacious"
)

// Appearance is the UI look stored under the "settings" key
type Appearance struct {
	Theme          Theme   `json:"theme" validate:"oneof=light dark system"`
	PrimaryColor   string  `json:"primaryColor" validate:"hexcolor"`
	FontSize       int     `json:"fontSize" validate:"gte=12,lte=20"`
	Density        Density `json:"density" validate:"oneof=comfortable compact spacious"`
	Animations     bool    `json:"animations"`
	RoundedCorners bool    `json:"roundedCorners"`
}

// DefaultAppearance returns the built-in look
func DefaultAppearance() Appearance {
	return Appearance{
		Theme:          ThemeSystem,
		PrimaryColor:   "#1976d2",
		FontSize:       16,
		Density:        DensityComfortable,
		Animations:     true,
		RoundedCorners: true,
	}
}

// Patch is a partial update of Appearance; nil fields are left alone
type Patch struct {
	Theme          *Theme   `json:"theme,omitempty"`
	PrimaryColor   *string  `json:"primaryColor,omitempty"`
	FontSize       *int     `json:"fontSize,omitempty"`
	Density        *Density `json:"density,omitempty"`
	Animations     *bool    `json:"animations,omitempty"`
	RoundedCorners *bool    `json:"roundedCorners,omitempty"`
}

// Apply returns a with the patch fields copied in
func (p Patch) Apply(a Appearance) Appearance {
	if p.Theme != nil {
		a.Theme = *p.Theme
	}
	if p.PrimaryColor != nil {
		a.PrimaryColor = *p.PrimaryColor
	}
	if p.FontSize != nil {
		a.FontSize = *p.FontSize
	}
	if p.Density != nil {
		a.Density = *p.Density
	}
	if p.Animations != nil {
		a.Animations = *p.Animations
	}
	if p.RoundedCorners != nil {
		a.RoundedCorners = *p.RoundedCorners
	}
	return a
}

// confirmation returns the message shown after the patch was saved
func (p Patch) confirmation() string {
	var msgs []string
	if p.Theme != nil {
		msgs = append(msgs, "Тема успешно изменена")
	}
	if p.PrimaryColor != nil {
		msgs = append(msgs, "Основной цвет успешно изменен")
	}
	if p.FontSize != nil {
		msgs = append(msgs, "Размер шрифта изменен")
	}
	if p.Density != nil {
		msgs = append(msgs, "Плотность интерфейса изменена")
	}
	if p.Animations != nil {
		if *p.Animations {
			msgs = append(msgs, "Анимации включены")
		} else {
			msgs = append(msgs, "Анимации выключены")
		}
	}
	if p.RoundedCorners != nil {
		if *p.RoundedCorners {
			msgs = append(msgs, "Скругленные углы включены")
		} else {
			msgs = append(msgs, "Скругленные углы выключены")
		}
	}
	switch len(msgs) {
	case 0:
		return ""
	case 1:
		return msgs[0]
	}
	return "Настройки сохранены"
}
