package mirror

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"restodash/backend/internal/classify"
	"restodash/backend/internal/domain"
)

const (
	collRecords    = "inventory_items"
	collStaff      = "staff_members"
	collAttendance = "attendance_records"
	collNotes      = "notes"
	collSales      = "sales"
)

type MongoMirror struct {
	client *mongo.Client
	dbName string
	now    func() time.Time
}

var _ Mirror = (*MongoMirror)(nil)

func NewMongo(ctx context.Context, uri string, dbName string) (*MongoMirror, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoMirror{client: client, dbName: dbName, now: time.Now}, nil
}

// mirrorRecord is the reshaped ledger row: ids and quantities are forced
// numeric so the mirror's schema stays uniform regardless of how the primary
// row was entered.
type mirrorRecord struct {
	ID          int64   `bson:"id"`
	Name        string  `bson:"name"`
	Quantity    float64 `bson:"quantity"`
	Price       float64 `bson:"price"`
	PaymentMode string  `bson:"paymentMode"`
	Notes       string  `bson:"notes,omitempty"`
	Date        string  `bson:"date"`
	IsSale      bool    `bson:"isSale"`
	Timestamp   string  `bson:"timestamp"`
	SalaryCycle int     `bson:"salaryCycle,omitempty"`
}

func (m *MongoMirror) reshape(r domain.Record) mirrorRecord {
	now := m.now()
	id, ok := r.ID.Numeric()
	if !ok {
		id = now.UnixMilli()
	}
	qty, err := strconv.ParseFloat(string(r.Quantity), 64)
	if err != nil || qty == 0 {
		qty = 1
	}
	mode := r.PaymentMode
	if mode == "" {
		mode = domain.DefaultPaymentMode
	}
	ts := r.Timestamp
	if ts == "" {
		ts = now.Format(time.RFC3339)
	}
	return mirrorRecord{
		ID:          id,
		Name:        r.Label(),
		Quantity:    qty,
		Price:       float64(r.Price),
		PaymentMode: mode,
		Notes:       r.Notes,
		Date:        r.Date,
		IsSale:      classify.IsSale(r),
		Timestamp:   ts,
		SalaryCycle: r.SalaryCycle,
	}
}

// replaceAll clears the collection then inserts the snapshot. The mirror
// always reflects a whole-collection write, matching the primary store.
func (m *MongoMirror) replaceAll(ctx context.Context, coll string, docs []interface{}) error {
	c := m.client.Database(m.dbName).Collection(coll)
	if _, err := c.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", coll, err)
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := c.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", coll, err)
	}
	return nil
}

func (m *MongoMirror) SyncRecords(ctx context.Context, list []domain.Record) error {
	docs := make([]interface{}, 0, len(list))
	for _, r := range list {
		docs = append(docs, m.reshape(r))
	}
	return m.replaceAll(ctx, collRecords, docs)
}

func (m *MongoMirror) SyncSales(ctx context.Context, list []domain.Record) error {
	docs := make([]interface{}, 0, len(list))
	for _, r := range list {
		docs = append(docs, m.reshape(r))
	}
	return m.replaceAll(ctx, collSales, docs)
}

func (m *MongoMirror) SyncStaff(ctx context.Context, list []domain.StaffMember) error {
	docs := make([]interface{}, 0, len(list))
	for _, s := range list {
		docs = append(docs, s)
	}
	return m.replaceAll(ctx, collStaff, docs)
}

func (m *MongoMirror) SyncAttendance(ctx context.Context, list []domain.AttendanceRecord) error {
	docs := make([]interface{}, 0, len(list))
	for _, a := range list {
		docs = append(docs, a)
	}
	return m.replaceAll(ctx, collAttendance, docs)
}

func (m *MongoMirror) SyncNotes(ctx context.Context, list []domain.Note) error {
	docs := make([]interface{}, 0, len(list))
	for _, n := range list {
		docs = append(docs, n)
	}
	return m.replaceAll(ctx, collNotes, docs)
}

func (m *MongoMirror) ChartRecords(ctx context.Context) ([]domain.Record, error) {
	c := m.client.Database(m.dbName).Collection(collRecords)
	cursor, err := c.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to read mirrored records: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []mirrorRecord
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode mirrored records: %w", err)
	}

	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Record{
			ID:          domain.FlexID(strconv.FormatInt(row.ID, 10)),
			Name:        row.Name,
			Quantity:    domain.FlexString(strconv.FormatFloat(row.Quantity, 'f', -1, 64)),
			Price:       domain.FlexAmount(row.Price),
			PaymentMode: row.PaymentMode,
			Notes:       row.Notes,
			Date:        row.Date,
			IsSale:      row.IsSale,
			Timestamp:   row.Timestamp,
			SalaryCycle: row.SalaryCycle,
		})
	}
	return out, nil
}

func (m *MongoMirror) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
