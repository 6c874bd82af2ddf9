// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medinotify/portal/internal/app/events"
)

// DBDeps holds database and backend dependencies for the app.
//
// Broker and Redis are optional: a deployment without RabbitMQ still serves
// the full portal and webhook surface, and a deployment without Redis just
// skips claim caching.
type DBDeps struct {
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Broker      *events.Broker
	Redis       *redis.Client
}
