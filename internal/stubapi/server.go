package stubapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"symposium/internal/auth"
	"symposium/internal/httpmiddleware"
	"symposium/internal/model"
	"symposium/internal/registration"
	"symposium/internal/rolegate"
	"symposium/internal/ticket"
)

// Server implements the backend's REST obligations over a fixture store.
type Server struct {
	store      *Store
	signingKey string
	issuer     string
	accessTTL  time.Duration
	ticketDir  string
	log        zerolog.Logger
}

// Config carries the settings the server needs. TicketDir, when set, receives
// a rendered ticket PNG per accepted registration.
type Config struct {
	SigningKey      string
	Issuer          string
	AccessTTL       time.Duration
	TicketDir       string
	RateLimitPerMin int
}

// NewServer creates the stub server.
func NewServer(store *Store, cfg Config, log zerolog.Logger) *Server {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 12 * time.Hour
	}
	return &Server{
		store:      store,
		signingKey: cfg.SigningKey,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		ticketDir:  cfg.TicketDir,
		log:        log,
	}
}

// Router assembles the gin engine with all routes and middleware.
func (s *Server) Router(rateLimitPerMin int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if rateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewTokenBucket(rateLimitPerMin, rateLimitPerMin).GinMiddleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/dev-login", s.handleDevLogin)
	r.GET("/api/events", s.handleEvents)

	authed := r.Group("/api", auth.Bearer(s.signingKey, s.issuer))
	authed.GET("/users/profile", s.handleProfile)
	authed.POST("/registrations", s.handleRegister)
	authed.GET("/registrations/:id/ticket", s.handleTicket)
	authed.POST("/checkin/building", s.handleBuildingCheckIn)
	authed.POST("/checkin/session", s.handleSessionCheckIn)

	return r
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// handleDevLogin stands in for the OAuth flow: it issues a token for a
// seeded user by email. Development and tests only.
func (s *Server) handleDevLogin(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "email required")
		return
	}
	u, err := s.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			fail(c, http.StatusUnauthorized, "unknown user")
			return
		}
		fail(c, http.StatusInternalServerError, "login failed")
		return
	}
	token, _, err := auth.Issue(u.ID, u.Name, u.Email, u.Role, s.issuer, s.signingKey, s.accessTTL)
	if err != nil {
		fail(c, http.StatusInternalServerError, "token issue failed")
		return
	}
	ok(c, http.StatusOK, gin.H{"token": token, "user": u})
}

func (s *Server) handleProfile(c *gin.Context) {
	claims := mustClaims(c)
	u, err := s.store.UserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			fail(c, http.StatusUnauthorized, "unknown user")
			return
		}
		fail(c, http.StatusInternalServerError, "profile fetch failed")
		return
	}
	ok(c, http.StatusOK, u)
}

func (s *Server) handleEvents(c *gin.Context) {
	events, err := s.store.Events(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "event fetch failed")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	ok(c, http.StatusOK, events)
}

func (s *Server) handleRegister(c *gin.Context) {
	claims := mustClaims(c)
	var req model.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid registration payload")
		return
	}
	if req.EventID == "" {
		fail(c, http.StatusBadRequest, "Event ID is required")
		return
	}

	ev, err := s.store.EventByID(c.Request.Context(), req.EventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			fail(c, http.StatusNotFound, "Event not found")
			return
		}
		fail(c, http.StatusInternalServerError, "registration failed")
		return
	}

	// Same rules the form enforces, applied authoritatively.
	if req.IsTeamRegistration {
		err = registration.ValidateTeam(ev, req.TeamName, req.TeamMembers)
	} else {
		err = registration.ValidateIndividual(req.PhoneNumber, req.College)
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	reg, err := s.store.CreateRegistration(c.Request.Context(), claims.Subject, req)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if s.ticketDir != "" {
		if path, terr := ticket.WriteFile(s.ticketDir, reg); terr != nil {
			s.log.Error().Err(terr).Str("registration", reg.ID).Msg("ticket render failed")
		} else {
			s.log.Info().Str("ticket", path).Msg("ticket rendered")
		}
	}
	s.log.Info().Str("event", ev.Title).Str("user", claims.Subject).Msg("registration created")
	ok(c, http.StatusCreated, reg)
}

// handleTicket serves the registration's QR payload as a PNG, the download
// behind the confirmation screen. Only the owner may fetch it.
func (s *Server) handleTicket(c *gin.Context) {
	claims := mustClaims(c)
	reg, ownerID, err := s.store.RegistrationByID(c.Request.Context(), c.Param("id"))
	if err != nil || ownerID != claims.Subject {
		fail(c, http.StatusNotFound, "Registration not found")
		return
	}
	buf, err := ticket.PNG(reg)
	if err != nil {
		fail(c, http.StatusInternalServerError, "ticket render failed")
		return
	}
	c.Data(http.StatusOK, "image/png", buf)
}

// checkInRequest is the scan payload for both check-in endpoints.
type checkInRequest struct {
	QRCode  string `json:"qrCode" binding:"required"`
	EventID string `json:"eventId"`
}

func (s *Server) handleBuildingCheckIn(c *gin.Context) {
	claims := mustClaims(c)
	if !rolegate.Allowed(rolegate.RouteBuildingScanner, claims.Role) {
		c.JSON(http.StatusForbidden, model.CheckInResponse{
			Success: false, Message: "Insufficient role for building check-in",
		})
		return
	}
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.CheckInResponse{Success: false, Message: "QR code is required"})
		return
	}

	u, already, err := s.store.BuildingCheckIn(c.Request.Context(), req.QRCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, model.CheckInResponse{Success: false, Message: "Invalid QR code"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.CheckInResponse{Success: false, Message: "Check-in failed"})
		return
	}

	resp := model.CheckInResponse{
		Success:          true,
		AlreadyCheckedIn: already,
		Message:          "Checked in to the building",
		User:             &model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Picture: u.Picture},
		Timestamp:        u.CheckInTime,
	}
	if already {
		resp.Message = "Already checked in to the building"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSessionCheckIn(c *gin.Context) {
	claims := mustClaims(c)
	if !rolegate.Allowed(rolegate.RouteSessionScanner, claims.Role) {
		c.JSON(http.StatusForbidden, model.CheckInResponse{
			Success: false, Message: "Insufficient role for session check-in",
		})
		return
	}
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EventID == "" {
		c.JSON(http.StatusBadRequest, model.CheckInResponse{
			Success: false, Message: "QR code and event ID are required",
		})
		return
	}

	u, ev, already, err := s.store.SessionCheckIn(c.Request.Context(), req.EventID, req.QRCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, model.CheckInResponse{Success: false, Message: "Invalid QR code or event"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.CheckInResponse{Success: false, Message: "Check-in failed"})
		return
	}

	now := time.Now().UTC()
	resp := model.CheckInResponse{
		Success:          true,
		AlreadyCheckedIn: already,
		Message:          "Checked in to " + ev.Title,
		User:             &model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Picture: u.Picture},
		Event:            &model.EventSummary{ID: ev.ID, Title: ev.Title, Venue: ev.Venue},
		Timestamp:        &now,
	}
	if already {
		resp.Message = "Already checked in to " + ev.Title
	}
	c.JSON(http.StatusOK, resp)
}

func mustClaims(c *gin.Context) auth.Claims {
	claimsAny, _ := c.Get("claims")
	claims, _ := claimsAny.(auth.Claims)
	return claims
}
