package datarecording

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// MongoDBRecorder is a DataRecorder that stores every table as a collection.
type MongoDBRecorder struct {
	mu         sync.Mutex
	client     *mongo.Client
	db         *mongo.Database
	tables     map[string]*table
	tableNames []string
	entryCount int
	batchSize  int
}

// NewMongoDBRecorder connects to the MongoDB server at uri and records into
// database.
func NewMongoDBRecorder(uri, database string) (*MongoDBRecorder, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	log.Printf("Data is recorded in MongoDB database: %s\n", database)

	r := &MongoDBRecorder{
		client:    client,
		db:        client.Database(database),
		tables:    make(map[string]*table),
		batchSize: 100000,
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// NewMongoDBRecorderFromURI records into the database named by the path of
// uri, or into the vmsim database when the path is empty.
func NewMongoDBRecorderFromURI(uri string) (*MongoDBRecorder, error) {
	database, err := mongoDatabaseName(uri)
	if err != nil {
		return nil, err
	}

	return NewMongoDBRecorder(uri, database)
}

func mongoDatabaseName(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("parsing MongoDB URI: %w", err)
	}

	if cs.Database == "" {
		return "vmsim", nil
	}

	return cs.Database, nil
}

// mongoDocument turns an entry into a document keyed by field name.
func mongoDocument(entry any) bson.M {
	return bson.M(structs.Map(entry))
}

// CreateTable registers a collection. Collections are created by MongoDB on
// the first insert.
func (r *MongoDBRecorder) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables[tableName] = &table{}
	r.tableNames = append(r.tableNames, tableName)
}

// InsertData buffers an entry.
func (r *MongoDBRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()

	t, exists := r.tables[tableName]
	if !exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	t.entries = append(t.entries, mongoDocument(entry))
	r.entryCount++
	full := r.entryCount >= r.batchSize

	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// ListTables returns the names of the collections registered.
func (r *MongoDBRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.tableNames...)
}

// Flush inserts the buffered documents.
func (r *MongoDBRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	for _, tableName := range r.tableNames {
		t := r.tables[tableName]
		if len(t.entries) == 0 {
			continue
		}

		_, err := r.db.Collection(tableName).
			InsertMany(context.Background(), t.entries)
		if err != nil {
			panic(err)
		}

		t.entries = nil
	}

	r.entryCount = 0
}

// Close flushes and disconnects.
func (r *MongoDBRecorder) Close() error {
	r.Flush()
	return r.client.Disconnect(context.Background())
}
