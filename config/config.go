package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Sim        SimConfig        `yaml:"sim"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "sqlite" or "postgres"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push operator alerts.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig sizes the alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// MenuItemConfig declares one orderable item. The price doubles as the
// per-item payout bonus.
type MenuItemConfig struct {
	Kind  string `yaml:"kind"`
	Label string `yaml:"label"`
	Price int64  `yaml:"price"`
}

// ClassWeights is the spawn distribution over guest classes.
type ClassWeights struct {
	VIP     int `yaml:"vip"`
	Regular int `yaml:"regular"`
	Budget  int `yaml:"budget"`
}

// ClassFactors holds one per-class multiplier set.
type ClassFactors struct {
	VIP     float64 `yaml:"vip"`
	Regular float64 `yaml:"regular"`
	Budget  float64 `yaml:"budget"`
}

// RewardConfig lists every coin reward the simulation pays out.
type RewardConfig struct {
	CheckIn           int64   `yaml:"check_in"`
	CheckInPerRequest int64   `yaml:"check_in_per_request"`
	CheckoutBase      int64   `yaml:"checkout_base"`
	Cleaning          int64   `yaml:"cleaning"`
	AngryFactor       float64 `yaml:"angry_factor"`
}

// CostConfig lists every coin cost the simulation charges.
type CostConfig struct {
	AddRoom         int64 `yaml:"add_room"`
	HireBellboy     int64 `yaml:"hire_bellboy"`
	HireCleanerBase int64 `yaml:"hire_cleaner_base"`
}

// SimConfig holds every tunable of the simulation core. Durations are
// configured in milliseconds and mirrored into time.Duration fields on load.
type SimConfig struct {
	Rooms           int   `yaml:"rooms"`
	StartingBalance int64 `yaml:"starting_balance"`
	CleanerCapacity int   `yaml:"cleaner_capacity"` // concurrent cleanings per hired cleaner
	MaxActiveOrders int   `yaml:"max_active_orders"`
	AutoDelivery    bool  `yaml:"auto_delivery"`

	TickMS           int `yaml:"tick_ms"`
	CleanMS          int `yaml:"clean_ms"`
	CleanTravelMS    int `yaml:"clean_travel_ms"`
	OrderMinDelayMS  int `yaml:"order_min_delay_ms"`
	OrderMaxDelayMS  int `yaml:"order_max_delay_ms"`
	OrderRetryMinMS  int `yaml:"order_retry_min_ms"`
	OrderRetryMaxMS  int `yaml:"order_retry_max_ms"`
	PatienceMS       int `yaml:"patience_ms"`
	GraceMS          int `yaml:"grace_ms"`
	PacingMS         int `yaml:"pacing_ms"`
	DeliveryTravelMS int `yaml:"delivery_travel_ms"`
	StayMS           int `yaml:"stay_ms"`
	ExitMS           int `yaml:"exit_ms"`

	Tick           time.Duration `yaml:"-"`
	CleanTime      time.Duration `yaml:"-"`
	CleanTravel    time.Duration `yaml:"-"`
	OrderMinDelay  time.Duration `yaml:"-"`
	OrderMaxDelay  time.Duration `yaml:"-"`
	OrderRetryMin  time.Duration `yaml:"-"`
	OrderRetryMax  time.Duration `yaml:"-"`
	Patience       time.Duration `yaml:"-"`
	Grace          time.Duration `yaml:"-"`
	Pacing         time.Duration `yaml:"-"`
	DeliveryTravel time.Duration `yaml:"-"`
	Stay           time.Duration `yaml:"-"`
	Exit           time.Duration `yaml:"-"`

	Menu []MenuItemConfig `yaml:"menu"`

	// RequestCountWeights[i] is the weight of a guest rolling i requests.
	RequestCountWeights []int `yaml:"request_count_weights"`

	ClassSpawnWeights   ClassWeights `yaml:"class_spawn_weights"`
	PatienceMultipliers ClassFactors `yaml:"patience_multipliers"`
	PayoutMultipliers   ClassFactors `yaml:"payout_multipliers"`

	Rewards RewardConfig `yaml:"rewards"`
	Costs   CostConfig   `yaml:"costs"`
}

// DefaultSim returns the simulation defaults. Loaded configuration overrides
// individual fields; anything left at zero is restored to these values.
func DefaultSim() SimConfig {
	return SimConfig{
		Rooms:           4,
		CleanerCapacity: 1,
		MaxActiveOrders: 2,

		TickMS:           250,
		CleanMS:          3000,
		CleanTravelMS:    800,
		OrderMinDelayMS:  3500,
		OrderMaxDelayMS:  9500,
		OrderRetryMinMS:  1500,
		OrderRetryMaxMS:  3500,
		PatienceMS:       12000,
		GraceMS:          1500,
		PacingMS:         1000,
		DeliveryTravelMS: 1200,
		StayMS:           30000,
		ExitMS:           1000,

		Menu: []MenuItemConfig{
			{Kind: "juice", Label: "Juice", Price: 5},
			{Kind: "chips", Label: "Chips", Price: 6},
			{Kind: "coffee", Label: "Coffee", Price: 7},
		},

		RequestCountWeights: []int{30, 38, 24, 8},

		ClassSpawnWeights:   ClassWeights{VIP: 10, Regular: 70, Budget: 20},
		PatienceMultipliers: ClassFactors{VIP: 0.75, Regular: 1.0, Budget: 1.5},
		PayoutMultipliers:   ClassFactors{VIP: 2.0, Regular: 1.0, Budget: 0.6},

		Rewards: RewardConfig{
			CheckIn:           2,
			CheckInPerRequest: 1,
			CheckoutBase:      10,
			Cleaning:          1,
			AngryFactor:       0.5,
		},
		Costs: CostConfig{
			AddRoom:         100,
			HireBellboy:     200,
			HireCleanerBase: 80,
		},
	}
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 1
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "hotel.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	ApplySimDefaults(&cfg.Sim)
	if err := validateSim(&cfg.Sim); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplySimDefaults fills zero-valued sim fields from DefaultSim and derives
// the time.Duration mirrors of all *_ms fields.
func ApplySimDefaults(s *SimConfig) {
	def := DefaultSim()

	if s.Rooms <= 0 {
		s.Rooms = def.Rooms
	}
	if s.CleanerCapacity <= 0 {
		s.CleanerCapacity = def.CleanerCapacity
	}
	if s.MaxActiveOrders <= 0 {
		s.MaxActiveOrders = def.MaxActiveOrders
	}

	defaultMS := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	defaultMS(&s.TickMS, def.TickMS)
	defaultMS(&s.CleanMS, def.CleanMS)
	defaultMS(&s.CleanTravelMS, def.CleanTravelMS)
	defaultMS(&s.OrderMinDelayMS, def.OrderMinDelayMS)
	defaultMS(&s.OrderMaxDelayMS, def.OrderMaxDelayMS)
	defaultMS(&s.OrderRetryMinMS, def.OrderRetryMinMS)
	defaultMS(&s.OrderRetryMaxMS, def.OrderRetryMaxMS)
	defaultMS(&s.PatienceMS, def.PatienceMS)
	defaultMS(&s.GraceMS, def.GraceMS)
	defaultMS(&s.PacingMS, def.PacingMS)
	defaultMS(&s.DeliveryTravelMS, def.DeliveryTravelMS)
	defaultMS(&s.StayMS, def.StayMS)
	defaultMS(&s.ExitMS, def.ExitMS)

	s.Tick = time.Duration(s.TickMS) * time.Millisecond
	s.CleanTime = time.Duration(s.CleanMS) * time.Millisecond
	s.CleanTravel = time.Duration(s.CleanTravelMS) * time.Millisecond
	s.OrderMinDelay = time.Duration(s.OrderMinDelayMS) * time.Millisecond
	s.OrderMaxDelay = time.Duration(s.OrderMaxDelayMS) * time.Millisecond
	s.OrderRetryMin = time.Duration(s.OrderRetryMinMS) * time.Millisecond
	s.OrderRetryMax = time.Duration(s.OrderRetryMaxMS) * time.Millisecond
	s.Patience = time.Duration(s.PatienceMS) * time.Millisecond
	s.Grace = time.Duration(s.GraceMS) * time.Millisecond
	s.Pacing = time.Duration(s.PacingMS) * time.Millisecond
	s.DeliveryTravel = time.Duration(s.DeliveryTravelMS) * time.Millisecond
	s.Stay = time.Duration(s.StayMS) * time.Millisecond
	s.Exit = time.Duration(s.ExitMS) * time.Millisecond

	if len(s.Menu) == 0 {
		s.Menu = def.Menu
	}
	if len(s.RequestCountWeights) != 4 {
		s.RequestCountWeights = def.RequestCountWeights
	}
	if s.ClassSpawnWeights == (ClassWeights{}) {
		s.ClassSpawnWeights = def.ClassSpawnWeights
	}
	if s.PatienceMultipliers == (ClassFactors{}) {
		s.PatienceMultipliers = def.PatienceMultipliers
	}
	if s.PayoutMultipliers == (ClassFactors{}) {
		s.PayoutMultipliers = def.PayoutMultipliers
	}
	if s.Rewards == (RewardConfig{}) {
		s.Rewards = def.Rewards
	}
	if s.Costs == (CostConfig{}) {
		s.Costs = def.Costs
	}
}

func validateSim(s *SimConfig) error {
	if s.OrderMaxDelay < s.OrderMinDelay {
		return fmt.Errorf("sim: order_max_delay_ms (%d) must be >= order_min_delay_ms (%d)", s.OrderMaxDelayMS, s.OrderMinDelayMS)
	}
	if s.OrderRetryMax < s.OrderRetryMin {
		return fmt.Errorf("sim: order_retry_max_ms (%d) must be >= order_retry_min_ms (%d)", s.OrderRetryMaxMS, s.OrderRetryMinMS)
	}
	for _, item := range s.Menu {
		if item.Kind == "" || item.Price <= 0 {
			return fmt.Errorf("sim: menu item %q must have a kind and a positive price", item.Label)
		}
	}
	return nil
}
