package e2e

import (
	"chat-dm/domain"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type account struct {
	domain.UserSummary
	token string
}

func (a *account) SetToken(token string) { a.token = token }

type push struct {
	Event string         `json:"event"`
	Data  domain.Message `json:"data"`
}

type testMessagingSuite struct {
	BaseSuite
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, &testMessagingSuite{})
}

func (s *testMessagingSuite) signup(name string) *account {
	acc := &account{}
	status := s.Call(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": name,
		"email":    name + "-" + uuid.NewString()[:8] + "@e2e.test",
		"password": "e2e-secret",
	}, acc)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().NotEmpty(acc.token, "signup must set the session cookie")
	return acc
}

func (s *testMessagingSuite) TestLiveDelivery() {
	s.WithHealth("Step 0: server reports SERVING", func(ctx context.Context, client healthpb.HealthClient) {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		s.Require().NoError(err)
		s.Require().Equal(healthpb.HealthCheckResponse_SERVING, resp.Status)
	})

	s.Step("Step 1: two fresh accounts")
	alice, bob := s.signup("alice"), s.signup("bob")

	s.Step("Step 2: bob connects")
	conn := s.Dial(bob.token)
	defer conn.Close()
	// Registration happens right after the upgrade.
	time.Sleep(100 * time.Millisecond)

	s.Step("Step 3: alice sends, bob receives the pushed record")
	var sent domain.Message
	status := s.Call(http.MethodPost, "/api/messages/send/"+bob.ID, alice.token, map[string]string{"text": "hello from e2e"}, &sent)
	s.Require().Equal(http.StatusCreated, status)

	var p push
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&p))
	s.Require().Equal("newMessage", p.Event)
	s.Require().Equal(sent.ID, p.Data.ID)

	s.Step("Step 4: history and chat partners agree")
	var history []domain.Message
	s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/api/messages/"+alice.ID, bob.token, nil, &history))
	s.Require().Len(history, 1)

	var partners []domain.UserSummary
	s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/api/messages/chats", bob.token, nil, &partners))
	s.Require().Len(partners, 1)
	s.Require().Equal(alice.ID, partners[0].ID)
}
