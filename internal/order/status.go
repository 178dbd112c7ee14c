package order

// Order lifecycle statuses. The client apps display these verbatim, so
// they stay in Russian. "Готов" and "Сделан" are synonyms used by
// different kitchen screens and share a rank.
const (
	StatusAccepted  = "Принят"
	StatusCooking   = "Готовится"
	StatusReady     = "Готов"
	StatusDone      = "Сделан"
	StatusShipped   = "Отправлен"
	StatusDelivered = "Доставлен"
)

var statusRank = map[string]int{
	StatusAccepted:  0,
	StatusCooking:   1,
	StatusReady:     2,
	StatusDone:      2,
	StatusShipped:   3,
	StatusDelivered: 4,
}

// KnownStatus reports whether s is one of the lifecycle statuses.
func KnownStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition forbids moving backward through the lifecycle. Moving
// between same-rank synonyms is allowed.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

// journalsUsage reports whether entering the status commits the
// order's ingredient usage to the journal.
func journalsUsage(s string) bool {
	return s == StatusReady || s == StatusDone
}
