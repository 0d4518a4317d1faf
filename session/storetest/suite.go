// Package storetest holds the behaviour every session.Store implementation must share.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-practice-client/session"
	"github.com/stretchr/testify/suite"
)

// StoreSuite runs the contract against the store returned by NewStore.
// Embed it, set NewStore, and call suite.Run.
type StoreSuite struct {
	suite.Suite
	NewStore func() session.Store

	store session.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func (s *StoreSuite) TestGetMissing() {
	v, ok, err := s.store.Get(s.ctx, session.KeyAccessToken)
	s.Require().NoError(err)
	s.False(ok)
	s.Empty(v)
}

func (s *StoreSuite) TestSetGetOverwrite() {
	s.Require().NoError(s.store.Set(s.ctx, session.KeyAccessToken, "access-1"))
	s.Require().NoError(s.store.Set(s.ctx, session.KeyAccessToken, "access-2"))

	v, ok, err := s.store.Get(s.ctx, session.KeyAccessToken)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("access-2", v)
}

func (s *StoreSuite) TestClearOnlyNamedKeys() {
	s.Require().NoError(s.store.Set(s.ctx, session.KeyAccessToken, "access"))
	s.Require().NoError(s.store.Set(s.ctx, session.KeyRefreshToken, "refresh"))
	s.Require().NoError(s.store.Set(s.ctx, session.KeySidebarCollapsed, "true"))

	s.Require().NoError(s.store.Clear(s.ctx, session.SessionKeys...))

	for _, k := range session.SessionKeys {
		_, ok, err := s.store.Get(s.ctx, k)
		s.Require().NoError(err)
		s.False(ok, "key %s should be cleared", k)
	}
	v, ok, err := s.store.Get(s.ctx, session.KeySidebarCollapsed)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("true", v)
}

func (s *StoreSuite) TestClearMissingIsNoop() {
	s.Require().NoError(s.store.Clear(s.ctx, session.KeyUser, session.KeyOrganization))
	s.Require().NoError(s.store.Clear(s.ctx))
}

func (s *StoreSuite) TestJSONBlobRoundTrip() {
	blob := `{"id":"u-1","name":"Ada \"Admin\"","roles":["partner"]}`
	s.Require().NoError(s.store.Set(s.ctx, session.KeyUser, blob))

	v, ok, err := s.store.Get(s.ctx, session.KeyUser)
	s.Require().NoError(err)
	s.True(ok)
	s.JSONEq(blob, v)
}

func (s *StoreSuite) TestConcurrentWriters() {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.store.Set(s.ctx, session.KeyAccessToken, fmt.Sprintf("access-%d", i))
			_, _, _ = s.store.Get(s.ctx, session.KeyAccessToken)
		}(i)
	}
	wg.Wait()

	v, ok, err := s.store.Get(s.ctx, session.KeyAccessToken)
	s.Require().NoError(err)
	s.True(ok)
	s.Contains(v, "access-")
}
