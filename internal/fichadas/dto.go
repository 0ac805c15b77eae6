package fichadas

import "time"

const (
	DateLayout = "2006-01-02"

	DefaultPollInterval  = 3 * time.Second
	DefaultRetryInterval = 60 * time.Second

	DefaultPageLimit = 50
	MaxPageLimit     = 200

	// attachWindowDays bounds how far back an exit looks for its entrance,
	// in calendar days. maxSessionHours is the precise elapsed-time guard
	// applied on top of the day window; the two are independent checks.
	attachWindowDays = 1
	maxSessionHours  = 24

	CollectionRecords  = "fichadas"
	CollectionSessions = "fichadascache"
	CollectionAgents   = "agentes"
)

// ListQuery filters the read-only API views over the migrated data.
type ListQuery struct {
	AgentID *string // ObjectID hex
	From    *string // YYYY-MM-DD
	To      *string // YYYY-MM-DD
	Limit   int
	Offset  int
}

type RecordResponse struct {
	ID         string        `json:"id"`
	Agent      AgentSnapshot `json:"agente"`
	Timestamp  time.Time     `json:"fecha"`
	IsEntrance bool          `json:"esEntrada"`
	DeviceRef  int           `json:"reloj"`
}

type SessionResponse struct {
	ID          string        `json:"id"`
	Agent       AgentSnapshot `json:"agente"`
	Day         string        `json:"fecha"` // YYYY-MM-DD
	Entrance    *time.Time    `json:"entrada"`
	Exit        *time.Time    `json:"salida"`
	HoursWorked string        `json:"horasTrabajadas,omitempty"`
}

type StatusResponse struct {
	State       string     `json:"state"`
	CycleID     string     `json:"cycle_id,omitempty"`
	Processed   uint64     `json:"processed"`
	Failed      uint64     `json:"failed"`
	LastEventAt *time.Time `json:"last_event_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
}

func (r AttendanceRecord) toDTO() RecordResponse {
	return RecordResponse{
		ID:         r.ID.Hex(),
		Agent:      r.Agent,
		Timestamp:  r.Timestamp,
		IsEntrance: r.IsEntrance,
		DeviceRef:  r.DeviceRef,
	}
}

func (s DailySession) toDTO() SessionResponse {
	return SessionResponse{
		ID:          s.ID.Hex(),
		Agent:       s.Agent,
		Day:         s.Day.Format(DateLayout),
		Entrance:    s.Entrance,
		Exit:        s.Exit,
		HoursWorked: s.HoursWorked,
	}
}
