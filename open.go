/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cloudadapter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/blobstore"
	"github.com/suparena/cloudadapter/clients"
	"github.com/suparena/cloudadapter/config"
	"github.com/suparena/cloudadapter/datastore/ddb"
	"github.com/suparena/cloudadapter/datastore/sdb"
	"github.com/suparena/cloudadapter/notification"
)

// Open builds and registers every service in cfg. Services already built
// are closed when a later one fails.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Manager, error) {
	m := NewManager(opts...)
	for _, sc := range cfg.Services {
		svc, err := Build(ctx, sc, m.logger)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("service %q: %w", sc.Name, err)
		}
		if err := m.Register(sc.Name, svc); err != nil {
			m.Close()
			return nil, err
		}
		m.logger.Info("service ready", zap.String("service", sc.Name), zap.String("type", sc.Type))
	}
	return m, nil
}

// Factory returns the client factory of a service configuration.
func Factory(sc config.ServiceConfig, logger *zap.Logger) *clients.Factory {
	opts := []clients.Option{clients.WithLogger(logger)}
	if sc.Endpoint != "" {
		opts = append(opts, clients.WithEndpoint(sc.Endpoint))
	}
	return clients.NewFactory(sc.Credentials(), opts...)
}

// Build creates the service instance described by sc.
func Build(ctx context.Context, sc config.ServiceConfig, logger *zap.Logger) (any, error) {
	factory := Factory(sc, logger)
	logger = logger.With(zap.String("service", sc.Name))

	switch sc.Type {
	case config.TypeDynamoDB:
		client, err := factory.DynamoDB(ctx)
		if err != nil {
			return nil, err
		}
		return ddb.New(client,
			ddb.WithLogger(logger),
			ddb.WithServerFilters(sc.ServerFilters),
		), nil

	case config.TypeSimpleDB:
		client, err := factory.SimpleDB()
		if err != nil {
			return nil, err
		}
		return sdb.New(client,
			sdb.WithLogger(logger),
			sdb.WithServerFilters(sc.ServerFilters),
			sdb.WithIDField(sc.Parameter("id_field", sdb.DefaultIDField)),
		), nil

	case config.TypeS3:
		client, err := factory.S3(ctx)
		if err != nil {
			return nil, err
		}
		return blobstore.New(ctx, client, sc.Container,
			blobstore.WithLogger(logger),
			blobstore.WithRegion(factory.Credentials().Region),
		)

	case config.TypeSNS:
		client, err := factory.SNS(ctx)
		if err != nil {
			return nil, err
		}
		return notification.New(client, factory.Credentials().Region, notification.WithLogger(logger)), nil
	}
	return nil, fmt.Errorf("unknown service type %q", sc.Type)
}
