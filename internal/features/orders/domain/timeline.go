package domain

import "time"

// Stage is one milestone of the customer-facing timeline.
type Stage struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Completed bool       `json:"completed"`
	Date      *time.Time `json:"date,omitempty"`
}

var stages = []struct {
	key   string
	label string
	// reached lists the order statuses at which the stage counts as complete.
	reached []Status
}{
	{"placed", "Order Placed", nil},
	{"processing", "Processing", []Status{StatusProcessing, StatusShipped, StatusDelivered, StatusReturned}},
	{"shipped", "Shipped", []Status{StatusShipped, StatusDelivered, StatusReturned}},
	{"delivered", "Delivered", []Status{StatusDelivered, StatusReturned}},
}

// Timeline projects the order status onto the four fixed milestones. Completed stages carry the
// order's last-modified time since per-stage times are not stored.
func Timeline(o *Order) []Stage {
	out := make([]Stage, 0, len(stages))
	for _, s := range stages {
		done := s.reached == nil
		for _, st := range s.reached {
			if o.OrderStatus == st {
				done = true
				break
			}
		}

		stage := Stage{Key: s.key, Label: s.label, Completed: done}
		if done {
			at := o.UpdatedAt
			stage.Date = &at
		}
		out = append(out, stage)
	}
	return out
}
