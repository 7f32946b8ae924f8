package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
)

// Instance 写入 etcd 的实例信息
type Instance struct {
	ID       string `json:"id"`
	HTTPAddr string `json:"http_addr"`
	GRPCAddr string `json:"grpc_addr,omitempty"`
}

// ServiceRegistry registers this instance under /services/{name}/{id} with a lease.
type ServiceRegistry struct {
	client          *clientv3.Client
	key             string
	value           string
	ttl             int64
	refreshInterval time.Duration
	leaseID         clientv3.LeaseID
	ctx             context.Context
	cancel          context.CancelFunc
	done            chan struct{}
	started         bool
}

// NewServiceRegistry creates the etcd client; nothing is written until Register.
func NewServiceRegistry(cfg config.ServiceRegistryConfig, inst Instance) (*ServiceRegistry, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("service registry endpoints are empty")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	if inst.ID == "" {
		inst.ID = cfg.ServiceID
	}
	if inst.ID == "" {
		host, _ := os.Hostname()
		inst.ID = host + "-" + uuid.NewString()[:8]
	}
	payload, err := json.Marshal(inst)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	ttl := int64(cfg.TTL.Seconds())
	if ttl < 1 {
		ttl = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client:          client,
		key:             ServiceKey(cfg.ServiceName, inst.ID),
		value:           string(payload),
		ttl:             ttl,
		refreshInterval: cfg.RefreshInterval,
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}, nil
}

// ServiceKey etcd 中的实例键
func ServiceKey(service, id string) string {
	return fmt.Sprintf("/services/%s/%s", service, id)
}

// Register writes the instance key and keeps its lease alive until Deregister.
func (r *ServiceRegistry) Register() error {
	if err := r.grantAndPut(); err != nil {
		return err
	}
	r.started = true
	go r.keepAlive()
	logger.Infof("Service registered key=%s value=%s", r.key, r.value)
	return nil
}

func (r *ServiceRegistry) grantAndPut() error {
	leaseResp, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID
	if _, err := r.client.Put(r.ctx, r.key, r.value, clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}

// keepAlive 续约通道关闭后按 refreshInterval 重新注册
func (r *ServiceRegistry) keepAlive() {
	defer close(r.done)
	for {
		ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
		if err == nil {
			for range ch {
			}
		}
		if r.ctx.Err() != nil {
			return
		}
		logger.Warnf("Registry lease lost key=%s error=%v, re-registering", r.key, err)

		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.refreshInterval):
		}
		if err := r.grantAndPut(); err != nil {
			logger.Errorf("Re-register failed key=%s error=%v", r.key, err)
		}
	}
}

// Deregister removes service registration.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.started {
		<-r.done
	}
	if r.leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			logger.Warnf("Failed to revoke lease key=%s error=%v", r.key, err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Infof("Service deregistered key=%s", r.key)
	return nil
}
