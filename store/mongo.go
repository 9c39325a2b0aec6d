package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phillip/event-ledger-go/ledger"
	models "github.com/phillip/event-ledger-go/models"
)

const (
	paymentsCollection     = "payments"
	invoicesCollection     = "invoices"
	eventsCollection       = "events"
	clientsCollection      = "clients"
	countersCollection     = "counters"
	syncFailuresCollection = "ledger_sync_failures"
	activityCollection     = "activity_logs"
)

// Connect opens a client that encodes decimal.Decimal as Decimal128.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetRegistry(NewRegistry())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoStore implements ledger.Store on MongoDB. Multi-document transactions
// need a replica set, so they are opt-in.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

func NewMongoStore(client *mongo.Client, dbName string, transactions bool) *MongoStore {
	return &MongoStore{
		client:       client,
		db:           client.Database(dbName),
		transactions: transactions,
	}
}

// EnsureIndexes creates the indexes the ledger queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		paymentsCollection: {
			{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "event_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
			{Keys: bson.D{{Key: "invoice_id", Value: 1}}},
		},
		invoicesCollection: {
			{
				Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "invoice_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// ---------------- PAYMENTS ----------------

func (s *MongoStore) GetPayment(ctx context.Context, orgID, id primitive.ObjectID) (*models.Payment, error) {
	var p models.Payment
	err := s.db.Collection(paymentsCollection).
		FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).
		Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *MongoStore) InsertPayment(ctx context.Context, p *models.Payment) error {
	_, err := s.db.Collection(paymentsCollection).InsertOne(ctx, p)
	return err
}

func (s *MongoStore) UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int64) error {
	p.Version = expectedVersion + 1
	err := s.replace(ctx, paymentsCollection, p.ID, p.OrganizationID, expectedVersion, p)
	if err != nil {
		p.Version = expectedVersion
	}
	return err
}

func (s *MongoStore) ListPayments(ctx context.Context, orgID primitive.ObjectID, f ledger.PaymentFilter) ([]models.Payment, error) {
	filter := bson.M{"organization_id": orgID, "is_deleted": false}
	if f.EventID != nil {
		filter["event_id"] = *f.EventID
	}
	if f.InvoiceID != nil {
		filter["invoice_id"] = *f.InvoiceID
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(paymentsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *MongoStore) MarkOverduePayments(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.Collection(paymentsCollection).UpdateMany(ctx,
		bson.M{
			"status":     models.PaymentPending,
			"is_deleted": false,
			"due_date":   bson.M{"$lt": now},
			"$expr":      bson.M{"$lt": bson.A{"$paid_amount", "$amount"}},
		},
		bson.M{
			"$set": bson.M{"status": models.PaymentOverdue, "updated_at": now},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ---------------- INVOICES ----------------

func (s *MongoStore) GetInvoice(ctx context.Context, orgID, id primitive.ObjectID) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Collection(invoicesCollection).
		FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).
		Decode(&inv)
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *MongoStore) InsertInvoice(ctx context.Context, inv *models.Invoice) error {
	_, err := s.db.Collection(invoicesCollection).InsertOne(ctx, inv)
	return err
}

func (s *MongoStore) UpdateInvoice(ctx context.Context, inv *models.Invoice, expectedVersion int64) error {
	inv.Version = expectedVersion + 1
	err := s.replace(ctx, invoicesCollection, inv.ID, inv.OrganizationID, expectedVersion, inv)
	if err != nil {
		inv.Version = expectedVersion
	}
	return err
}

func (s *MongoStore) ListInvoices(ctx context.Context, orgID primitive.ObjectID, f ledger.InvoiceFilter) ([]models.Invoice, error) {
	filter := bson.M{"organization_id": orgID}
	if f.ClientID != nil {
		filter["client_id"] = *f.ClientID
	}
	if f.EventID != nil {
		filter["event_id"] = *f.EventID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "issue_date", Value: -1}})
	cursor, err := s.db.Collection(invoicesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	invoices := []models.Invoice{}
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *MongoStore) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.Collection(invoicesCollection).UpdateMany(ctx,
		bson.M{
			"status":   models.InvoiceSent,
			"due_date": bson.M{"$lt": now},
			// settled invoices resolve to paid, never overdue
			"$expr": bson.M{"$lt": bson.A{"$paid_amount", "$total"}},
		},
		bson.M{
			"$set": bson.M{"status": models.InvoiceOverdue, "updated_at": now},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// NextInvoiceNumber allocates INV-<year>-<seq> from a per-organization counter.
func (s *MongoStore) NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID, year int) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": fmt.Sprintf("invoice:%s:%d", orgID.Hex(), year)},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return "", err
	}
	return formatInvoiceNumber(year, counter.Seq), nil
}

// ---------------- LOOKUPS ----------------

func (s *MongoStore) GetEvent(ctx context.Context, orgID, id primitive.ObjectID) (*models.Event, error) {
	var ev models.Event
	err := s.db.Collection(eventsCollection).
		FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).
		Decode(&ev)
	if err != nil {
		return nil, notFound(err)
	}
	return &ev, nil
}

func (s *MongoStore) GetClient(ctx context.Context, orgID, id primitive.ObjectID) (*models.Client, error) {
	var c models.Client
	err := s.db.Collection(clientsCollection).
		FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).
		Decode(&c)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *MongoStore) InsertSyncFailure(ctx context.Context, f *models.SyncFailure) error {
	_, err := s.db.Collection(syncFailuresCollection).InsertOne(ctx, f)
	return err
}

func (s *MongoStore) InsertActivity(ctx context.Context, a *models.ActivityLog) error {
	_, err := s.db.Collection(activityCollection).InsertOne(ctx, a)
	return err
}

// ---------------- TRANSACTIONS ----------------

func (s *MongoStore) Transactional() bool {
	return s.transactions
}

func (s *MongoStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// replace swaps the whole document only if the stored version still matches.
func (s *MongoStore) replace(ctx context.Context, collection string, id, orgID primitive.ObjectID, expectedVersion int64, doc interface{}) error {
	res, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id, "organization_id": orgID, "version": expectedVersion},
		doc,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ledger.ErrVersionConflict
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.ErrNotFound
	}
	return err
}

func formatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}
