package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenStore marca ids externos de mensagens já vistas no webhook de entrada.
// É só uma guarda barata na frente do banco: o índice único em external_id
// continua sendo a fonte de verdade. Um SeenStore nil fica desabilitado
// (tudo conta como "primeira vez").
type SeenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSeenStore(rdb *redis.Client, ttl time.Duration) *SeenStore {
	return &SeenStore{rdb: rdb, ttl: ttl}
}

// MarkSeen devolve true se este (tenant, externalID) ainda não tinha sido
// visto dentro do TTL. Erros de redis não derrubam a ingestão: reporta
// "primeira vez" e deixa o banco decidir.
func (s *SeenStore) MarkSeen(ctx context.Context, tenantID int64, externalID string) (bool, error) {
	if s == nil || s.rdb == nil {
		return true, nil
	}
	key := fmt.Sprintf("wa:seen:%d:%s", tenantID, externalID)
	first, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return true, err
	}
	return first, nil
}
