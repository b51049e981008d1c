package httptransport

// Justification for unit tests:
// These run the whole request path - middleware, auth, decoding, services
// over in-memory stores - the way a volunteer's device drives it: verify,
// register, check eligibility, record, get denied on the second attempt.

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"relieflink/internal/attestation"
	"relieflink/internal/audit"
	"relieflink/internal/auth"
	"relieflink/internal/auth/token"
	"relieflink/internal/distribution"
	"relieflink/internal/eligibility"
	ledgerstore "relieflink/internal/ledger/store/distribution"
	registryservice "relieflink/internal/registry/service"
	familystore "relieflink/internal/registry/store/family"
	"relieflink/pkg/secrets"
)

type RouterSuite struct {
	suite.Suite

	router    http.Handler
	auditLog  *audit.InMemoryStore
	clock     time.Time
	bearer    string
	operator  string
	families  *familystore.InMemoryStore
	ledger    *ledgerstore.InMemoryStore
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.clock = time.UnixMilli(1700000000000).UTC()
	s.operator = "operator-key"

	s.auditLog = audit.NewInMemoryStore()
	auditor := audit.NewPublisher(s.auditLog)

	attestor := attestation.NewMock()
	tokens := token.NewService("test-signing-key", "relieflink", "relieflink-field", time.Hour)

	operatorHash, err := secrets.Hash(s.operator)
	s.Require().NoError(err)

	authSvc, err := auth.New(attestor, tokens,
		auth.WithAuditPublisher(auditor),
		auth.WithOperatorKeyHash(operatorHash),
	)
	s.Require().NoError(err)

	s.families = familystore.NewMemory()
	s.ledger = ledgerstore.NewMemory()

	registrySvc, err := registryservice.New(s.families,
		registryservice.WithAuditPublisher(auditor),
		registryservice.WithClock(func() time.Time { return s.clock }),
	)
	s.Require().NoError(err)

	engine, err := eligibility.New(s.families, s.ledger)
	s.Require().NoError(err)

	distributionSvc, err := distribution.New(engine, s.ledger,
		distribution.WithAuditPublisher(auditor),
		distribution.WithClock(func() time.Time { return s.clock }),
	)
	s.Require().NoError(err)

	handler := NewHandler(attestor, authSvc, registrySvc, engine, distributionSvc, logger,
		WithClock(func() time.Time { return s.clock }),
	)
	s.router = NewRouter(handler)

	s.bearer = s.verifyVolunteer("volunteer-proof")
}

func (s *RouterSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) volunteerHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.bearer}
}

func (s *RouterSuite) verifyVolunteer(proof string) string {
	w := s.do(http.MethodPost, "/auth/verify", VerifyRequest{
		Proof: base64.StdEncoding.EncodeToString([]byte(proof)),
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp VerifyResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Require().NotEmpty(resp.Token)
	return resp.Token
}

func (s *RouterSuite) registerFamily(proof string) RegisterFamilyResponse {
	w := s.do(http.MethodPost, "/families", RegisterFamilyRequest{
		Proof:      base64.StdEncoding.EncodeToString([]byte(proof)),
		Location:   "Mumbai, Maharashtra",
		FamilySize: 4,
	}, s.volunteerHeaders())
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp RegisterFamilyResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func (s *RouterSuite) TestVerifyRejectsBadProof() {
	w := s.do(http.MethodPost, "/auth/verify", VerifyRequest{Proof: "not base64!!"}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestRegisterFamily() {
	resp := s.registerFamily("family-proof-1")

	s.Len(resp.URID, 16)
	s.Len(resp.Commitment, 64)
	s.Equal(4, resp.FamilySize)

	w := s.do(http.MethodGet, "/families/"+resp.Commitment, nil, s.volunteerHeaders())
	s.Require().Equal(http.StatusOK, w.Code)

	var family FamilyResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&family))
	s.Equal(resp.Commitment, family.Commitment)
	s.True(family.Active)
}

func (s *RouterSuite) TestRegisterRequiresToken() {
	w := s.do(http.MethodPost, "/families", RegisterFamilyRequest{
		Proof:      base64.StdEncoding.EncodeToString([]byte("x")),
		Location:   "camp",
		FamilySize: 2,
	}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestGetFamilyNotFound() {
	missing := "1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"
	w := s.do(http.MethodGet, "/families/"+missing, nil, s.volunteerHeaders())
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestEligibilityMatrix() {
	family := s.registerFamily("family-proof-2")

	w := s.do(http.MethodGet, "/eligibility/"+family.Commitment, nil, s.volunteerHeaders())
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var matrix EligibilityMatrixResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&matrix))
	s.Require().Len(matrix.Decisions, 6)
	s.Equal("FOOD", matrix.Decisions[0].AidType)
	s.Equal("CASH", matrix.Decisions[5].AidType)
	for _, decision := range matrix.Decisions {
		s.True(decision.Eligible, decision.AidType)
	}
}

func (s *RouterSuite) TestRecordAndDeny() {
	family := s.registerFamily("family-proof-3")

	record := RecordDistributionRequest{
		Commitment: family.Commitment,
		AidType:    "food",
		Quantity:   3,
		Location:   "camp north",
	}

	w := s.do(http.MethodPost, "/distributions", record, s.volunteerHeaders())
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created DistributionResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&created))
	s.Equal("FOOD", created.AidType)
	s.NotEmpty(created.RecordedBy)

	// Second handout inside the 24h window is refused with a retry hint.
	w = s.do(http.MethodPost, "/distributions", record, s.volunteerHeaders())
	s.Require().Equal(http.StatusConflict, w.Code, w.Body.String())

	var body map[string]any
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal("not_eligible", body["error"])
	s.Equal(float64((24 * time.Hour).Milliseconds()), body["retry_after_ms"])

	// A different aid type is still open.
	record.AidType = "water"
	w = s.do(http.MethodPost, "/distributions", record, s.volunteerHeaders())
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (s *RouterSuite) TestRecordValidation() {
	family := s.registerFamily("family-proof-4")

	cases := []struct {
		name       string
		body       RecordDistributionRequest
		wantStatus int
	}{
		{
			name: "unknown aid type",
			body: RecordDistributionRequest{
				Commitment: family.Commitment, AidType: "fuel", Quantity: 1, Location: "camp",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			body: RecordDistributionRequest{
				Commitment: family.Commitment, AidType: "food", Quantity: 0, Location: "camp",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "oversized quantity",
			body: RecordDistributionRequest{
				Commitment: family.Commitment, AidType: "food", Quantity: 1_000_001, Location: "camp",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "malformed commitment",
			body: RecordDistributionRequest{
				Commitment: "nope", AidType: "food", Quantity: 1, Location: "camp",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.do(http.MethodPost, "/distributions", tc.body, s.volunteerHeaders())
			s.Equal(tc.wantStatus, w.Code, w.Body.String())
		})
	}
}

func (s *RouterSuite) TestHistory() {
	family := s.registerFamily("family-proof-5")

	w := s.do(http.MethodPost, "/distributions", RecordDistributionRequest{
		Commitment: family.Commitment, AidType: "medical", Quantity: 1, Location: "clinic tent",
	}, s.volunteerHeaders())
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/distributions/"+family.Commitment, nil, s.volunteerHeaders())
	s.Require().Equal(http.StatusOK, w.Code)

	var history HistoryResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&history))
	s.Require().Len(history.Records, 1)
	s.Equal("MEDICAL", history.Records[0].AidType)
}

func (s *RouterSuite) TestFamilyStatusOperatorGate() {
	family := s.registerFamily("family-proof-6")
	path := fmt.Sprintf("/families/%s/status", family.Commitment)
	body := FamilyStatusRequest{Active: false, Reason: "duplicate registration suspected"}

	s.Run("missing key", func() {
		w := s.do(http.MethodPost, path, body, nil)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("wrong key", func() {
		w := s.do(http.MethodPost, path, body, map[string]string{"X-Operator-Key": "wrong"})
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("deactivates and blocks eligibility", func() {
		w := s.do(http.MethodPost, path, body, map[string]string{"X-Operator-Key": s.operator})
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		var resp FamilyResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.False(resp.Active)

		check := s.do(http.MethodGet, "/eligibility/"+family.Commitment, nil, s.volunteerHeaders())
		s.Equal(http.StatusUnprocessableEntity, check.Code)
	})
}

func (s *RouterSuite) TestHealthz() {
	w := s.do(http.MethodGet, "/healthz", nil, nil)
	s.Equal(http.StatusOK, w.Code)
}
