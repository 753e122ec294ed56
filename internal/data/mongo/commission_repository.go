package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/shared"
)

const (
	// CommissionCollectionName is the name of the commission ledger collection in MongoDB
	CommissionCollectionName = "commission_entries"
)

// entryDocument is the stored shape of a commission entry.
// Ids are strings and amounts are cents so the documents stay readable from the mongo shell.
type entryDocument struct {
	EventID         string    `bson:"event_id"`
	EventType       string    `bson:"event_type"`
	PaymentID       string    `bson:"payment_id"`
	ConsultantRef   string    `bson:"consultant_ref"`
	ServiceRef      string    `bson:"service_ref"`
	ClientRef       string    `bson:"client_ref"`
	Direction       string    `bson:"direction"`
	BaseAmountCents int64     `bson:"base_amount_cents"`
	RateBps         int       `bson:"rate_bps"`
	AmountCents     int64     `bson:"amount_cents"`
	EffectiveDate   time.Time `bson:"effective_date"`
	Reason          string    `bson:"reason,omitempty"`
	CorrelationID   string    `bson:"correlation_id,omitempty"`
	CreatedAt       time.Time `bson:"created_at"`
}

func toDocument(e *commission.Entry) entryDocument {
	return entryDocument{
		EventID:         e.EventID.String(),
		EventType:       string(e.EventType),
		PaymentID:       e.PaymentID.String(),
		ConsultantRef:   e.ConsultantRef.String(),
		ServiceRef:      e.ServiceRef.String(),
		ClientRef:       e.ClientRef.String(),
		Direction:       string(e.Direction),
		BaseAmountCents: payment.ToMinorUnits(e.BaseAmount),
		RateBps:         e.RateBps,
		AmountCents:     payment.ToMinorUnits(e.Amount),
		EffectiveDate:   e.EffectiveDate,
		Reason:          e.Reason,
		CorrelationID:   e.CorrelationID,
		CreatedAt:       e.CreatedAt,
	}
}

func (d entryDocument) toEntry() (*commission.Entry, error) {
	ids := make([]uuid.UUID, 5)
	for i, raw := range []string{d.EventID, d.PaymentID, d.ConsultantRef, d.ServiceRef, d.ClientRef} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in commission entry: %w", raw, err)
		}
		ids[i] = id
	}

	return &commission.Entry{
		EventID:       ids[0],
		EventType:     shared.LedgerEventType(d.EventType),
		PaymentID:     ids[1],
		ConsultantRef: ids[2],
		ServiceRef:    ids[3],
		ClientRef:     ids[4],
		Direction:     shared.TransactionType(d.Direction),
		BaseAmount:    payment.FromMinorUnits(d.BaseAmountCents),
		RateBps:       d.RateBps,
		Amount:        payment.FromMinorUnits(d.AmountCents),
		EffectiveDate: d.EffectiveDate.UTC(),
		Reason:        d.Reason,
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.CreatedAt.UTC(),
	}, nil
}

// CommissionRepository implements the commission.Repository interface for MongoDB
type CommissionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewCommissionRepository creates a new MongoDB commission repository
func NewCommissionRepository(logger *slog.Logger, db *mongo.Database) *CommissionRepository {
	return &CommissionRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique event index that makes Create idempotent,
// plus the indexes serving the consultant extract and reversal lookups.
func (r *CommissionRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(CommissionCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
		},
		{
			Keys:    bson.D{{Key: "consultant_ref", Value: 1}, {Key: "effective_date", Value: 1}},
			Options: options.Index().SetName("consultant_effective_date"),
		},
		{
			Keys:    bson.D{{Key: "payment_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("payment_created_at"),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create commission indexes", "error", err)
		return fmt.Errorf("failed to create commission indexes: %w", err)
	}

	return nil
}

// Create stores a new commission entry.
// Returns ErrDuplicateEntry if an entry for the same event already exists.
func (r *CommissionRepository) Create(ctx context.Context, entry *commission.Entry) error {
	collection := r.db.Collection(CommissionCollectionName)

	_, err := collection.InsertOne(ctx, toDocument(entry))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commission.ErrDuplicateEntry{EventID: entry.EventID}
		}
		r.logger.Error("Failed to create commission entry",
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create commission entry: %w", err)
	}

	return nil
}

// GetByEventID retrieves the commission entry produced by a ledger event.
// Returns ErrEntryNotFound if the event was never recorded.
func (r *CommissionRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*commission.Entry, error) {
	collection := r.db.Collection(CommissionCollectionName)

	var doc entryDocument
	err := collection.FindOne(ctx, bson.M{"event_id": eventID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, commission.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get commission entry",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get commission entry: %w", err)
	}

	return doc.toEntry()
}

// LatestForPayment retrieves the entry recorded last for a payment.
// Returns ErrEntryNotFound if the payment never produced an entry.
func (r *CommissionRepository) LatestForPayment(ctx context.Context, paymentID uuid.UUID) (*commission.Entry, error) {
	collection := r.db.Collection(CommissionCollectionName)

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc entryDocument
	err := collection.FindOne(ctx, bson.M{"payment_id": paymentID.String()}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, commission.ErrEntryNotFound{}
		}
		r.logger.Error("Failed to get latest commission entry",
			"payment_id", paymentID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get latest commission entry: %w", err)
	}

	return doc.toEntry()
}

// ListByConsultant retrieves a consultant's entries effective within [from, to].
// Results are sorted by effective date, then creation time, oldest first.
func (r *CommissionRepository) ListByConsultant(ctx context.Context, consultantRef uuid.UUID, from, to time.Time) ([]*commission.Entry, error) {
	collection := r.db.Collection(CommissionCollectionName)

	filter := bson.M{
		"consultant_ref": consultantRef.String(),
		"effective_date": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "effective_date", Value: 1}, {Key: "created_at", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list commission entries",
			"consultant_ref", consultantRef.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list commission entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode commission entries",
			"consultant_ref", consultantRef.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode commission entries: %w", err)
	}

	entries := make([]*commission.Entry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
