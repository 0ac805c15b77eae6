package fichadas

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClockEvent is one pending row in personal_fichadas_sync, joined with
// the display number from personal_agentes.
type ClockEvent struct {
	ID          int64
	AgentRef    string // native ObjectID hex or a legacy numeric code
	AgentNumber string // joined agent number, may be empty
	Timestamp   time.Time
	IsEntrance  bool
	DeviceRef   int
}

// AgentSnapshot is the denormalized agent identity embedded in every
// destination document at write time.
type AgentSnapshot struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FirstName string             `bson:"nombre" json:"nombre"`
	LastName  string             `bson:"apellido" json:"apellido"`
}

// AttendanceRecord is a document in the fichadas collection. Append-only:
// never mutated or deleted once written.
type AttendanceRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Agent      AgentSnapshot      `bson:"agente"`
	Timestamp  time.Time          `bson:"fecha"`
	IsEntrance bool               `bson:"esEntrada"`
	DeviceRef  int                `bson:"reloj"`
}

// DailySession is a document in the fichadascache collection: the derived
// per-agent, per-day entrance/exit pair. Mutable until both ends are set.
// HoursWorked is computed by the downstream reporting layer, never here.
type DailySession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Agent       AgentSnapshot      `bson:"agente"`
	Day         time.Time          `bson:"fecha"`
	Entrance    *time.Time         `bson:"entrada"`
	Exit        *time.Time         `bson:"salida"`
	HoursWorked string             `bson:"horasTrabajadas,omitempty"`
}

// Open reports whether the session still waits for its exit punch.
func (s DailySession) Open() bool {
	return s.Entrance != nil && s.Exit == nil
}

// Agent is a document in the agentes collection. Reference data,
// maintained elsewhere; read-only for this worker.
type Agent struct {
	ID           primitive.ObjectID `bson:"_id"`
	LegacyID     int                `bson:"idLegacy,omitempty"`
	Number       string             `bson:"numero,omitempty"`
	DocumentType string             `bson:"tipoDocumento,omitempty"`
	DocumentID   string             `bson:"documento"`
	FirstName    string             `bson:"nombre"`
	LastName     string             `bson:"apellido"`
	Active       bool               `bson:"activo"`
}
