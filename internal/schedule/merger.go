package schedule

import (
	"booking-service/internal/model"
)

// Merge annotates candidate slots with their booking status. bookings are expected to be
// the confirmed bookings of the same date; entries for other dates are ignored.
func Merge(candidates []model.Slot, bookings []model.Booking) []model.Slot {
	booked := make(map[datedKey]struct{}, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if b.Status != "" && b.Status != model.BookingConfirmed {
			continue
		}
		booked[bookingKey(b)] = struct{}{}
	}

	out := make([]model.Slot, len(candidates))
	for i, slot := range candidates {
		slot.Status = model.SlotAvailable
		if _, ok := booked[slotKey(slot)]; ok {
			slot.Status = model.SlotBooked
		}
		out[i] = slot
	}
	return out
}

// Find returns the slot with the given key.
func Find(slots []model.Slot, key model.SlotKey) (model.Slot, bool) {
	for _, s := range slots {
		if s.Key() == key {
			return s, true
		}
	}
	return model.Slot{}, false
}

type datedKey struct {
	date model.Date
	key  model.SlotKey
}

func bookingKey(b *model.Booking) datedKey {
	return datedKey{date: b.Date, key: b.Key()}
}

func slotKey(s model.Slot) datedKey {
	return datedKey{date: s.Date, key: s.Key()}
}
