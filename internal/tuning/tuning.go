package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Passive chat drip.
	MessageXP   int `yaml:"message_xp"`
	MessageCoin int `yaml:"message_coin"`

	// Timed actions.
	DailyAmount        int `yaml:"daily_amount"`
	DailyCooldownHours int `yaml:"daily_cooldown_hours"`
	RepCooldownHours   int `yaml:"rep_cooldown_hours"`
	ScanCooldownDays   int `yaml:"scan_cooldown_days"`
	ScanMaxMessages    int `yaml:"scan_max_messages"`

	// Exploration quota (rolling window).
	ExploreWindowMinutes int `yaml:"explore_window_minutes"`
	ExploreMax           int `yaml:"explore_max"`

	// Adventure and combat.
	PlayerHP        int `yaml:"player_hp"`
	Potions         int `yaml:"potions"`
	AttackMin       int `yaml:"attack_min"`
	AttackMax       int `yaml:"attack_max"`
	HealMin         int `yaml:"heal_min"`
	HealMax         int `yaml:"heal_max"`
	GatherMax       int `yaml:"gather_max"`
	GatherXPPerUnit int `yaml:"gather_xp_per_unit"`
	ChestCoinMin    int `yaml:"chest_coin_min"`
	ChestCoinMax    int `yaml:"chest_coin_max"`
	ChestXP         int `yaml:"chest_xp"`

	// Store.
	VipCost     int    `yaml:"vip_cost"`
	VipDays     int    `yaml:"vip_days"`
	VipGrantID  string `yaml:"vip_grant_id"`
	SupporterID string `yaml:"supporter_grant_id"`
}

func Defaults() Tuning {
	return Tuning{
		MessageXP:   10,
		MessageCoin: 1,

		DailyAmount:        100,
		DailyCooldownHours: 24,
		RepCooldownHours:   24,
		ScanCooldownDays:   7,
		ScanMaxMessages:    100,

		ExploreWindowMinutes: 60,
		ExploreMax:           3,

		PlayerHP:        100,
		Potions:         3,
		AttackMin:       5,
		AttackMax:       14,
		HealMin:         5,
		HealMax:         19,
		GatherMax:       5,
		GatherXPPerUnit: 2,
		ChestCoinMin:    20,
		ChestCoinMax:    69,
		ChestXP:         30,

		VipCost:     5000,
		VipDays:     7,
		VipGrantID:  "vip",
		SupporterID: "supporter",
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
