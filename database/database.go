// Package database - Handles all interaction with ArangoDB
package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

// UsersCollection is the document collection holding accounts
const UsersCollection = "users"

// Index names. Write errors are classified by these names, see classifyWriteError.
const (
	idxUsersEmailUnique  = "users_email_unique"
	idxUsersMobileUnique = "users_mobile_unique"
	idxUsersResetToken   = "users_reset_token"
	idxUsersRole         = "users_role"
)

// DBConnection is the structure that defined the database engine and collections
type DBConnection struct {
	Collections map[string]arangodb.Collection
	Database    arangodb.Database
}

// Config holds the connection settings for ArangoDB
type Config struct {
	URL             string
	User            string
	Password        string
	DatabaseName    string
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration // 0 retries forever
}

// Define a struct to hold the index definition
type indexConfig struct {
	Collection string
	IdxName    string
	IdxFields  []string
	Unique     bool
	Sparse     bool
}

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// ConfigFromEnv builds the connection settings from ARANGO_* variables
func ConfigFromEnv() Config {
	dbhost := GetEnvDefault("ARANGO_HOST", "localhost")
	dbport := GetEnvDefault("ARANGO_PORT", "8529")
	return Config{
		URL:             GetEnvDefault("ARANGO_URL", "http://"+dbhost+":"+dbport),
		User:            GetEnvDefault("ARANGO_USER", "root"),
		Password:        GetEnvDefault("ARANGO_PASS", "mypassword"),
		DatabaseName:    GetEnvDefault("ARANGO_DATABASE", "storefront"),
		InitialInterval: 10 * time.Second,
		MaxInterval:     2 * time.Minute,
	}
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// InitializeDatabase connects to the db engine, then creates the database, collections and indexes
// that the user service relies on. The unique indexes on email and mobile are the real guarantee
// behind account uniqueness.
func InitializeDatabase(ctx context.Context, cfg Config, logger *zap.Logger) (DBConnection, error) {
	var client arangodb.Client

	//
	// Database connection with backoff retry
	//

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.MaxElapsedTime = cfg.MaxElapsedTime

	err := backoff.RetryNotify(func() error {
		logger.Info("Attempting to connect to ArangoDB", zap.String("url", cfg.URL))
		endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
		conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, cfg.User, cfg.Password))

		client = arangodb.NewClient(conn)

		versionInfo, err := client.Version(ctx)
		if err != nil {
			return err
		}

		logger.Sugar().Infof("Database has version '%s' and license '%s'", versionInfo.Version, versionInfo.License)
		return nil
	}, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		logger.Warn("Retrying connection to ArangoDB", zap.Error(err), zap.Duration("wait", wait))
	})
	if err != nil {
		return DBConnection{}, fmt.Errorf("connect to ArangoDB: %w", err)
	}

	//
	// Database creation
	//

	db, err := ensureDatabase(ctx, client, cfg.DatabaseName)
	if err != nil {
		return DBConnection{}, err
	}

	//
	// Collection creation for document storage
	//

	collections := make(map[string]arangodb.Collection)
	for _, collectionName := range []string{UsersCollection} {
		var col arangodb.Collection

		exists, _ := db.CollectionExists(ctx, collectionName)
		if exists {
			var options arangodb.GetCollectionOptions
			if col, err = db.GetCollection(ctx, collectionName, &options); err != nil {
				return DBConnection{}, fmt.Errorf("failed to use collection %s: %w", collectionName, err)
			}
		} else {
			if col, err = db.CreateCollection(ctx, collectionName, nil); err != nil {
				return DBConnection{}, fmt.Errorf("failed to create collection %s: %w", collectionName, err)
			}
		}

		collections[collectionName] = col
	}

	//
	// Index creation
	//

	idxList := []indexConfig{
		{Collection: UsersCollection, IdxName: idxUsersEmailUnique, IdxFields: []string{"email"}, Unique: true},
		{Collection: UsersCollection, IdxName: idxUsersMobileUnique, IdxFields: []string{"mobile"}, Unique: true},
		// sparse: only documents with a pending reset carry the attribute
		{Collection: UsersCollection, IdxName: idxUsersResetToken, IdxFields: []string{"reset_token"}, Sparse: true},
		{Collection: UsersCollection, IdxName: idxUsersRole, IdxFields: []string{"role"}},
	}

	for _, idx := range idxList {
		if err := ensureIndex(ctx, collections[idx.Collection], idx, logger); err != nil {
			return DBConnection{}, err
		}
	}

	logger.Info("Database initialization complete", zap.String("database", cfg.DatabaseName))

	return DBConnection{
		Database:    db,
		Collections: collections,
	}, nil
}

func ensureDatabase(ctx context.Context, client arangodb.Client, name string) (arangodb.Database, error) {
	exists := false
	dblist, _ := client.Databases(ctx)

	for _, dbinfo := range dblist {
		if dbinfo.Name() == name {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		db, err := client.GetDatabase(ctx, name, &options)
		if err != nil {
			return nil, fmt.Errorf("failed to get database: %w", err)
		}
		return db, nil
	}

	db, err := client.CreateDatabase(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	return db, nil
}

func ensureIndex(ctx context.Context, col arangodb.Collection, idx indexConfig, logger *zap.Logger) error {
	if indexes, err := col.Indexes(ctx); err == nil {
		for _, index := range indexes {
			if idx.IdxName == index.Name {
				return nil
			}
		}
	}

	unique := idx.Unique
	sparse := idx.Sparse
	indexOptions := arangodb.CreatePersistentIndexOptions{
		Unique: &unique,
		Sparse: &sparse,
		Name:   idx.IdxName,
	}

	if _, _, err := col.EnsurePersistentIndex(ctx, idx.IdxFields, &indexOptions); err != nil {
		return fmt.Errorf("error creating index %s: %w", idx.IdxName, err)
	}
	logger.Sugar().Infof("Created index: %s on %s.%v", idx.IdxName, idx.Collection, idx.IdxFields)
	return nil
}
