package allocation

import "math"

// budget decides how many chargers a site receives and tracks what is left.
type budget interface {
	// grant returns the chargers to build at a site with the given traffic.
	// halt reports that the allocation pass must stop before this site.
	grant(traffic float64) (chargers int, halt bool)
	used() float64
	remaining() float64
}

func newBudget(cfg Config) budget {
	if cfg.BudgetPolicy == BudgetCost {
		return &costBudget{
			left:       cfg.BudgetValue,
			total:      cfg.BudgetValue,
			station:    cfg.StationCost,
			charger:    cfg.ChargerCost,
			capacity:   cfg.CapacityPerCharger,
			maxPerSite: cfg.MaxChargersPerSite,
		}
	}
	// Budgets beyond MaxInt cannot be spent anyway; converting them would
	// overflow into a negative count.
	total := math.MaxInt
	if v := math.Floor(cfg.BudgetValue); v < float64(math.MaxInt) {
		total = int(v)
	}
	return &countBudget{
		left:       total,
		total:      total,
		capacity:   cfg.CapacityPerCharger,
		maxPerSite: cfg.MaxChargersPerSite,
		partial:    cfg.AllowPartialCharger,
	}
}

// countBudget caps the total number of chargers.
type countBudget struct {
	left, total int
	capacity    float64
	maxPerSite  int
	partial     bool
}

func (b *countBudget) grant(traffic float64) (int, bool) {
	if b.left <= 0 {
		return 0, true
	}
	util := math.Floor(traffic / b.capacity)
	if b.partial {
		util++
	}
	n := int(math.Min(util, float64(min(b.maxPerSite, b.left))))
	if n < 0 {
		n = 0
	}
	b.left -= n
	return n, false
}

func (b *countBudget) used() float64      { return float64(b.total - b.left) }
func (b *countBudget) remaining() float64 { return float64(b.left) }

// costBudget caps money spent: each built site costs one station plus its
// chargers.
type costBudget struct {
	left, total      float64
	station, charger float64
	capacity         float64
	maxPerSite       int
}

func (b *costBudget) grant(traffic float64) (int, bool) {
	if b.left < b.station+b.charger {
		return 0, true
	}
	maxSite := math.Min(float64(b.maxPerSite), math.Floor((b.left-b.station)/b.charger))
	maxUtil := math.Min(math.Floor(traffic/b.capacity)+1, maxSite)
	n := int(math.Max(1, maxUtil))
	for n > 0 && b.station+float64(n)*b.charger > b.left {
		n--
	}
	if n < 1 {
		return 0, true
	}
	b.left -= b.station + float64(n)*b.charger
	return n, false
}

func (b *costBudget) used() float64      { return b.total - b.left }
func (b *costBudget) remaining() float64 { return b.left }
