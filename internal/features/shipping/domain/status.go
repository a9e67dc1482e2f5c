package domain

import "strings"

// courierStatuses maps the aggregator's status vocabulary, lower-cased, onto Status.
var courierStatuses = map[string]Status{
	"new":                        StatusCreated,
	"created":                    StatusCreated,
	"awb assigned":               StatusAssigned,
	"pickup scheduled":           StatusAssigned,
	"pickup generated":           StatusAssigned,
	"pickup queued":              StatusAssigned,
	"generated":                  StatusAssigned,
	"queued":                     StatusAssigned,
	"picked up":                  StatusPickedUp,
	"shipped":                    StatusInTransit,
	"in transit":                 StatusInTransit,
	"reached at destination hub": StatusInTransit,
	"out for delivery":           StatusOutForDelivery,
	"delivered":                  StatusDelivered,
	"rto initiated":              StatusReturned,
	"rto delivered":              StatusReturned,
	"canceled":                   StatusCancelled,
	"cancelled":                  StatusCancelled,
}

// MapCourierStatus translates courier text. Unrecognised text yields StatusUnknown and false.
func MapCourierStatus(text string) (Status, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if s, ok := courierStatuses[key]; ok {
		return s, true
	}
	return StatusUnknown, false
}
