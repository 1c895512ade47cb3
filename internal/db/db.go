// Package db exports flushed readings to ScyllaDB.
package db

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

const DefaultKeyspace = "sensors_data"

type DB struct {
	Data     *gocql.Session // sensors_data
	keyspace string
}

func New(nodes []string, keyspace string) (*DB, error) {
	if keyspace == "" {
		keyspace = DefaultKeyspace
	}

	cluster := gocql.NewCluster(nodes...)
	cluster.Keyspace = keyspace
	cluster.Timeout = 2 * time.Second
	cluster.Consistency = gocql.LocalQuorum
	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("unable to connect to scylla: %w", err)
	}

	return &DB{Data: sess, keyspace: keyspace}, nil
}

func (db *DB) Name() string {
	return "scylla"
}

func (db *DB) Close() {
	if db.Data != nil {
		db.Data.Close()
	}
}
