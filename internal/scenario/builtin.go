package scenario

// Builtin returns a named built-in scenario, nil when unknown.
func Builtin(name string) *Scenario {
	switch name {
	case "firestorm":
		return &Scenario{
			Name:           "firestorm",
			Description:    "A dry summer. Keep the city growing through three waves of fires.",
			DeadlineMonths: 120,
			Schedule: []Scheduled{
				{Month: 24, Disaster: "fire"},
				{Month: 25, Disaster: "fire"},
				{Month: 48, Disaster: "fire"},
				{Month: 49, Disaster: "fire"},
				{Month: 72, Disaster: "fire"},
			},
			Win: Conditions{Population: 5000},
		}
	case "aftershock":
		return &Scenario{
			Name:           "aftershock",
			Description:    "An earthquake levels the young city. Rebuild and win the voters back.",
			StartingFunds:  15000,
			DeadlineMonths: 96,
			Schedule: []Scheduled{
				{Month: 6, Disaster: "earthquake"},
				{Month: 9, Disaster: "earthquake"},
			},
			Win: Conditions{Population: 3000, Approval: 60},
		}
	case "visitors":
		return &Scenario{
			Name:           "visitors",
			Description:    "Something is circling overhead, and it brought friends.",
			DeadlineMonths: 144,
			Schedule: []Scheduled{
				{Month: 12, Disaster: "ufo"},
				{Month: 36, Disaster: "monster"},
				{Month: 60, Disaster: "ufo"},
			},
			Win: Conditions{Population: 8000},
		}
	default:
		return nil
	}
}

// BuiltinNames lists the built-in scenarios in menu order.
func BuiltinNames() []string {
	return []string{"firestorm", "aftershock", "visitors"}
}
