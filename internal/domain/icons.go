package domain

// Preselected values of the admin form when creating a sport.
const (
	DefaultIcon  = "basketball-outline"
	DefaultColor = "#000000"
)

// Icons is the set an admin can pick from. Storage does not enforce it;
// the HTTP and CLI boundaries do.
var Icons = []string{
	"basketball-outline", "football-outline", "baseball-outline", "tennisball-outline",
	"golf-outline", "bicycle-outline", "walk-outline", "fitness-outline",
	"american-football-outline", "barbell-outline", "bowling-ball-outline", "medal-outline",
	"snow-outline", "rocket-outline", "boat-outline", "airplane-outline",
	"car-sport-outline", "pulse-outline", "speedometer-outline", "heart-outline",
	"flame-outline", "compass-outline", "shirt-outline", "stopwatch-outline",
	"sunny-outline", "rainy-outline", "thunderstorm-outline", "body-outline",
	"trophy-outline", "nutrition-outline", "restaurant-outline", "cafe-outline",
	"wine-outline", "beer-outline", "game-controller-outline", "headset-outline",
	"musical-notes-outline", "radio-outline",
}

var knownIcons = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Icons)+7)
	for _, icon := range Icons {
		m[icon] = struct{}{}
	}
	// Seed entries predate the picker and use the filled variants.
	for _, s := range DefaultSports() {
		m[s.Icon] = struct{}{}
	}
	return m
}()

// IsKnownIcon reports whether icon is pickable or used by the built-in seed.
func IsKnownIcon(icon string) bool {
	_, ok := knownIcons[icon]
	return ok
}
