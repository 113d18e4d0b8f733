package sim

// PriorityPolicy computes a priority score for a waiting order.
// Higher scores are tried first. Scores depend on the clock and are recomputed on
// every assignment pass, never cached.
// Implementations MUST NOT modify the order.
type PriorityPolicy interface {
	Compute(o *Order, clock int64) float64
}

// DeadlineValuePriority scores orders by value decayed with age, plus deadline urgency,
// minus a size penalty:
//
//	ValueWeight·value/(clock−requestTime+1) + UrgencyWeight·urgency − SizePenalty·totalQuantity
//
// urgency is 0 without a deadline, 1/(dueBy−clock+1) while dueBy > clock, and
// OverdueUrgency once the deadline tick is reached.
type DeadlineValuePriority struct {
	ValueWeight    float64
	UrgencyWeight  float64
	SizePenalty    float64
	OverdueUrgency float64
}

// DefaultPriority returns the scoring used by the VIP queue.
func DefaultPriority() *DeadlineValuePriority {
	return &DeadlineValuePriority{
		ValueWeight:    1.0,
		UrgencyWeight:  10.0,
		SizePenalty:    0.1,
		OverdueUrgency: 10.0,
	}
}

func (p *DeadlineValuePriority) Compute(o *Order, clock int64) float64 {
	age := float64(clock-o.RequestTime) + 1.0
	return p.ValueWeight*o.Value/age +
		p.UrgencyWeight*p.urgency(o, clock) -
		p.SizePenalty*float64(o.TotalQuantity())
}

func (p *DeadlineValuePriority) urgency(o *Order, clock int64) float64 {
	if o.DueBy == 0 {
		return 0
	}
	left := o.DueBy - clock
	if left > 0 {
		return 1.0 / (float64(left) + 1.0)
	}
	return p.OverdueUrgency
}
