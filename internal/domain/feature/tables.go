package feature

// Built-in lookup tables. Stat keys follow the upstream provider's naming;
// benchmark ranges reflect typical professional play and clamp outliers.

func defaultBenchmarks() map[string]Benchmark {
	return map[string]Benchmark{
		"kills_per_round":    {Min: 0.4, Max: 1.2},
		"deaths_per_round":   {Min: 0.4, Max: 1.0},
		"assists_per_round":  {Min: 0.1, Max: 0.5},
		"damage_per_round":   {Min: 90, Max: 200},
		"headshot_rate":      {Min: 0.1, Max: 0.45},
		"first_kill_rate":    {Min: 0.05, Max: 0.25},
		"first_death_rate":   {Min: 0.05, Max: 0.25},
		"clutch_rate":        {Min: 0.0, Max: 0.5},
		"multi_kill_rate":    {Min: 0.0, Max: 0.3},
		"objective_rate":     {Min: 0.0, Max: 0.8},
		"utility_damage":     {Min: 0, Max: 60},
		"trade_rate":         {Min: 0.0, Max: 0.4},
		"win_rate":           {Min: 0.2, Max: 0.8},
		"round_win_rate":     {Min: 0.35, Max: 0.65},
		"pistol_win_rate":    {Min: 0.2, Max: 0.8},
		"comeback_rate":      {Min: 0.0, Max: 0.5},
		"meta_pick_rate":     {Min: 0.0, Max: 1.0},
		"meta_win_rate":      {Min: 0.3, Max: 0.7},
		"map_pool_depth":     {Min: 2, Max: 9},
		"agent_pool_depth":   {Min: 1, Max: 8},
		"avg_round_duration": {Min: 40, Max: 110},
	}
}

func defaultSkillWeights() map[string]map[string]float64 {
	general := map[string]float64{
		"kills_per_round":  0.25,
		"damage_per_round": 0.20,
		"win_rate":         0.25,
		"headshot_rate":    0.10,
		"clutch_rate":      0.10,
		"multi_kill_rate":  0.10,
	}
	return map[string]map[string]float64{
		GeneralKey: general,
		"valorant": {
			"kills_per_round":  0.22,
			"damage_per_round": 0.18,
			"win_rate":         0.22,
			"headshot_rate":    0.14,
			"first_kill_rate":  0.12,
			"clutch_rate":      0.12,
		},
		"cs2": {
			"kills_per_round":  0.25,
			"damage_per_round": 0.20,
			"win_rate":         0.20,
			"headshot_rate":    0.15,
			"utility_damage":   0.10,
			"clutch_rate":      0.10,
		},
	}
}

func defaultStyleWeights() map[string]styleTable {
	general := styleTable{
		aggression: map[string]float64{
			"first_kill_rate": 0.40,
			"kills_per_round": 0.35,
			"multi_kill_rate": 0.25,
		},
		macro: map[string]float64{
			"objective_rate": 0.40,
			"utility_damage": 0.30,
			"trade_rate":     0.30,
		},
		adaptability: map[string]float64{
			"clutch_rate":      0.40,
			"comeback_rate":    0.35,
			"agent_pool_depth": 0.25,
		},
	}
	return map[string]styleTable{
		GeneralKey: general,
		"valorant": general,
		"cs2": {
			aggression: map[string]float64{
				"first_kill_rate": 0.40,
				"kills_per_round": 0.35,
				"pistol_win_rate": 0.25,
			},
			macro: map[string]float64{
				"utility_damage": 0.45,
				"trade_rate":     0.30,
				"objective_rate": 0.25,
			},
			adaptability: map[string]float64{
				"clutch_rate":    0.45,
				"comeback_rate":  0.30,
				"map_pool_depth": 0.25,
			},
		},
	}
}

func defaultMetaWeights() map[string]map[string]float64 {
	general := map[string]float64{
		"meta_pick_rate": 0.5,
		"meta_win_rate":  0.5,
	}
	return map[string]map[string]float64{
		GeneralKey: general,
	}
}

func defaultRoleMultipliers() map[string]map[string]Multipliers {
	general := map[string]Multipliers{
		GeneralKey:   {Aggression: 1.0, Macro: 1.0, Adaptability: 1.0},
		"duelist":    {Aggression: 1.3, Macro: 0.8, Adaptability: 1.0},
		"controller": {Aggression: 0.8, Macro: 1.3, Adaptability: 1.0},
		"initiator":  {Aggression: 1.0, Macro: 1.1, Adaptability: 1.1},
		"sentinel":   {Aggression: 0.7, Macro: 1.2, Adaptability: 1.1},
		"igl":        {Aggression: 0.8, Macro: 1.4, Adaptability: 1.2},
		"awper":      {Aggression: 1.2, Macro: 0.9, Adaptability: 0.9},
		"support":    {Aggression: 0.8, Macro: 1.2, Adaptability: 1.1},
		"flex":       {Aggression: 1.0, Macro: 1.0, Adaptability: 1.3},
	}
	return map[string]map[string]Multipliers{
		GeneralKey: general,
		"valorant": general,
	}
}
