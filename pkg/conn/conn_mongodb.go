package conn

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mongoDBConn struct {
	hosts  []string
	client *mongo.Client
}

// OpenMongoDB connects to a mongodb:// or mongodb+srv:// URI. Credentials are
// taken from the URI.
func OpenMongoDB(ctx context.Context, uri string) (Conn, error) {
	opts := options.Client().ApplyURI(uri)
	client, err := mongo.NewClient(opts)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	c := &mongoDBConn{hosts: opts.Hosts, client: client}
	if err := c.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

func (m *mongoDBConn) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	log.WithFields(log.Fields{"kind": "conn", "name": "mongodb", "status": "alive", "host": m.hosts}).Debug()
	return nil
}

func (m *mongoDBConn) Close() error {
	return m.client.Disconnect(context.Background())
}
