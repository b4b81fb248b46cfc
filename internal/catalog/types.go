package catalog

// AmmoType enumerates shell families found on WoT vehicles.
type AmmoType string

const (
	AmmoAP   AmmoType = "AP"
	AmmoAPCR AmmoType = "APCR"
	AmmoHE   AmmoType = "HE"
	AmmoHEAT AmmoType = "HEAT"
)

// Ammo slots by convention: 0 standard, 1 special, 2 explosive.
const (
	SlotStandard  = 0
	SlotSpecial   = 1
	SlotExplosive = 2
	AmmoSlots     = 3
)

// Ammo describes one shell type and its damage tuple (min, average, max).
type Ammo struct {
	Type   AmmoType `json:"type"`
	Damage [3]int   `json:"damage"`
}

// Average returns the average damage component of the tuple.
func (a Ammo) Average() int {
	return a.Damage[1]
}

// Vehicle is one tank from the encyclopedia. Immutable once loaded.
type Vehicle struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Ammo     [AmmoSlots]Ammo `json:"ammo"`
}
