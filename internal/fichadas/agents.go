package fichadas

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AgentRefKind tags the two reference formats the source system has
// stored across migration eras. Both stay supported indefinitely.
type AgentRefKind int

const (
	RefNative AgentRefKind = iota + 1 // destination-native ObjectID
	RefLegacy                         // numeric code from the old system
)

// AgentRef is a parsed source-system agent reference.
type AgentRef struct {
	Kind     AgentRefKind
	NativeID primitive.ObjectID // set when Kind == RefNative
	Number   string             // set when Kind == RefLegacy
}

// ParseAgentRef classifies a raw reference. A well-formed ObjectID hex
// wins; anything else is treated as a legacy code, looked up by the
// agent number joined from the source.
func ParseAgentRef(ref, number string) (AgentRef, error) {
	if ref == "" {
		return AgentRef{}, ErrMissingAgentRef()
	}
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		return AgentRef{Kind: RefNative, NativeID: oid}, nil
	}
	return AgentRef{Kind: RefLegacy, Number: number}, nil
}

func (r AgentRef) String() string {
	if r.Kind == RefNative {
		return r.NativeID.Hex()
	}
	return r.Number
}

// AgentResolver turns a source reference into the destination agent's
// identity snapshot.
type AgentResolver interface {
	Resolve(ctx context.Context, ref AgentRef) (AgentSnapshot, error)
}

// AgentStore resolves agents against the read-only agentes collection.
type AgentStore struct{ c *mongo.Collection }

func NewAgentStore(mdb *mongo.Database) *AgentStore {
	return &AgentStore{c: mdb.Collection(CollectionAgents)}
}

func (s *AgentStore) Resolve(ctx context.Context, ref AgentRef) (AgentSnapshot, error) {
	var filter bson.M
	switch ref.Kind {
	case RefNative:
		filter = bson.M{"_id": ref.NativeID}
	case RefLegacy:
		if ref.Number == "" {
			return AgentSnapshot{}, ErrUnresolvedAgent(ref.String())
		}
		filter = bson.M{"numero": ref.Number}
	default:
		return AgentSnapshot{}, ErrMissingAgentRef()
	}

	opts := options.FindOne().SetProjection(bson.M{"_id": 1, "nombre": 1, "apellido": 1})
	var ag Agent
	err := s.c.FindOne(ctx, filter, opts).Decode(&ag)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return AgentSnapshot{}, ErrUnresolvedAgent(ref.String())
	}
	if err != nil {
		return AgentSnapshot{}, ErrDestination(err)
	}
	return AgentSnapshot{ID: ag.ID, FirstName: ag.FirstName, LastName: ag.LastName}, nil
}
