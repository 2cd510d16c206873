package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	mg "payments_admin/internal/config/connections/mongo"
	"payments_admin/internal/models"
	"payments_admin/internal/ports"
)

const DefaultMongoCollection = "payments"

// MongoService reads and writes payments straight from the payments collection.
type MongoService struct {
	MG         *mg.Mongo
	Collection string
	Logger     *slog.Logger
}

func NewMongoService(m *mg.Mongo, collection string, logger *slog.Logger) *MongoService {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoService{MG: m, Collection: collection, Logger: logger}
}

type paymentDoc struct {
	ID              any      `bson:"_id"`
	PayeeFirstName  string   `bson:"payee_first_name"`
	PayeeLastName   string   `bson:"payee_last_name"`
	DueAmount       *float64 `bson:"due_amount"`
	PaymentStatus   string   `bson:"payee_payment_status"`
	TotalDue        *float64 `bson:"total_due"`
	Evidence        string   `bson:"evidence"`
	EvidenceFile    string   `bson:"evidence_file"`
	Currency        string   `bson:"currency"`
	DiscountPercent *float64 `bson:"discount_percent"`
	TaxPercent      *float64 `bson:"tax_percent"`
}

func (s *MongoService) coll() (*mongo.Collection, error) {
	if s.MG == nil || s.MG.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}
	return s.MG.Database.Collection(s.Collection), nil
}

func (s *MongoService) FetchAll(ctx context.Context) ([]models.Payment, error) {
	coll, err := s.coll()
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find payments: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Payment, 0)
	for cur.Next(ctx) {
		var d paymentDoc
		if err := cur.Decode(&d); err != nil {
			s.Logger.Warn("[RECORDS][MONGO][WARN] skip undecodable payment", "error", err)
			continue
		}
		out = append(out, d.toPayment())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func (s *MongoService) DeleteByID(ctx context.Context, id string) error {
	coll, err := s.coll()
	if err != nil {
		return err
	}

	for _, f := range idFilters(id) {
		res, err := coll.DeleteOne(ctx, f)
		if err != nil {
			return fmt.Errorf("delete payment %s: %w", id, err)
		}
		if res.DeletedCount > 0 {
			return nil
		}
	}
	return fmt.Errorf("delete payment %s: %w", id, ports.ErrNotFound)
}

func (s *MongoService) UpdateByID(ctx context.Context, id string, patch models.PaymentPatch) (models.Payment, error) {
	coll, err := s.coll()
	if err != nil {
		return models.Payment{}, err
	}

	set := patchDoc(patch)
	if len(set) == 0 {
		return models.Payment{}, errors.New("update payment: empty patch")
	}

	for _, f := range idFilters(id) {
		res, err := coll.UpdateOne(ctx, f, bson.M{"$set": set})
		if err != nil {
			return models.Payment{}, fmt.Errorf("update payment %s: %w", id, err)
		}
		if res.MatchedCount == 0 {
			continue
		}

		var d paymentDoc
		if err := coll.FindOne(ctx, f).Decode(&d); err != nil {
			return models.Payment{}, fmt.Errorf("reload payment %s: %w", id, err)
		}
		return d.toPayment(), nil
	}
	return models.Payment{}, fmt.Errorf("update payment %s: %w", id, ports.ErrNotFound)
}

func (s *MongoService) Ping(ctx context.Context) error {
	if s.MG == nil || s.MG.Client == nil {
		return mongo.ErrClientDisconnected
	}
	return s.MG.Client.Ping(ctx, readpref.Primary())
}

// idFilters tries the id as an ObjectId first and then as a plain string.
func idFilters(id string) []bson.M {
	id = strings.TrimSpace(id)
	var out []bson.M
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		out = append(out, bson.M{"_id": oid})
	}
	return append(out, bson.M{"_id": id})
}

func patchDoc(p models.PaymentPatch) bson.M {
	set := bson.M{}
	if p.DueAmount != nil {
		set["due_amount"] = p.DueAmount.InexactFloat64()
	}
	if p.PaymentStatus != nil {
		set["payee_payment_status"] = *p.PaymentStatus
	}
	if p.TotalDue != nil {
		set["total_due"] = p.TotalDue.InexactFloat64()
	}
	if p.Evidence != nil {
		set["evidence"] = *p.Evidence
	}
	if p.DiscountPercent != nil {
		set["discount_percent"] = p.DiscountPercent.InexactFloat64()
	}
	if p.TaxPercent != nil {
		set["tax_percent"] = p.TaxPercent.InexactFloat64()
	}
	return set
}

func (d paymentDoc) toPayment() models.Payment {
	p := models.Payment{
		ID:              idString(d.ID),
		PayeeFirstName:  d.PayeeFirstName,
		PayeeLastName:   d.PayeeLastName,
		DueAmount:       floatDecimal(d.DueAmount),
		PaymentStatus:   d.PaymentStatus,
		Evidence:        d.Evidence,
		Currency:        d.Currency,
		DiscountPercent: floatDecimal(d.DiscountPercent),
		TaxPercent:      floatDecimal(d.TaxPercent),
	}
	if p.Evidence == "" {
		p.Evidence = d.EvidenceFile
	}
	if d.TotalDue != nil {
		p.TotalDue = floatDecimal(d.TotalDue)
	} else {
		p.TotalDue = models.CalculateTotalDue(p)
	}
	return p
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func floatDecimal(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}
