package domain

import "time"

// VehicleTypes is the fixed list of dispatchable vehicle categories.
var VehicleTypes = []string{
	"Motorcycle", "Scooter", "Electric bike", "Bicycle", "Auto rickshaw",
	"Electric cargo rickshaw", "Maruti Eeco", "Mahindra Bolero", "Tata Ace",
	"Mahindra Jeeto", "Tempo", "Ashok Leyland Dost", "Tata Winger",
	"Box truck (closed body)", "Container truck", "Heavy goods vehicle (HGV)",
	"Flatbed truck", "Open body truck", "Trailer truck", "Semi-truck",
	"Lorry", "DCM", "Auto",
}

// IsValidVehicleType reports whether t is a recognized vehicle category.
func IsValidVehicleType(t string) bool {
	for _, v := range VehicleTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Vehicle represents a dispatchable vehicle in the fleet.
type Vehicle struct {
	ID         string
	DriverID   string // empty when unassigned
	DriverName string
	Name       string
	Number     string // registration plate, unique
	Type       string
	Capacity   int
	Active     bool
	Location   *Location
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
