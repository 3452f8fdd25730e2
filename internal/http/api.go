package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"datacatalog/internal/domain"
	"datacatalog/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users          service.UserService
	datasets       service.DatasetService
	tokens         *TokenManager
	authLimiter    *RateLimiter
	generalLimiter *RateLimiter
	corsOrigin     string
	debug          bool
	logger         *logrus.Logger
}

func NewHandler(
	users service.UserService,
	datasets service.DatasetService,
	tokens *TokenManager,
	authLimiter, generalLimiter *RateLimiter,
	corsOrigin string,
	debug bool,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		users:          users,
		datasets:       datasets,
		tokens:         tokens,
		authLimiter:    authLimiter,
		generalLimiter: generalLimiter,
		corsOrigin:     corsOrigin,
		debug:          debug,
		logger:         logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(h.corsOrigin))
	router.Use(rateLimitMiddleware(h.authLimiter, h.generalLimiter, h.logger))

	router.GET("/health", h.health)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}

	datasets := router.Group("/datasets")
	datasets.Use(h.authRequired())
	{
		datasets.GET("", h.listDatasets)
		datasets.POST("", h.createDataset)
		datasets.GET("/:id", h.getDataset)
		datasets.PUT("/:id", h.updateDataset)
		datasets.DELETE("/:id", h.deleteDataset)
	}

	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})
}

func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type datasetRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        *[]string `json:"tags"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type DatasetResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"createdAt"`
	UserID      string   `json:"userId"`
}

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Message: message, Status: status}})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.logger.Infof("registered user %s", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"token":   token,
		"user":    UserResponse{ID: user.ID, Email: user.Email},
	})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"token":   token,
		"user":    UserResponse{ID: user.ID, Email: user.Email},
	})
}

func (h *Handler) listDatasets(c *gin.Context) {
	datasets, err := h.datasets.List(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp := make([]DatasetResponse, len(datasets))
	for i := range datasets {
		resp[i] = datasetToResponse(datasets[i])
	}
	c.JSON(http.StatusOK, gin.H{"datasets": resp})
}

func (h *Handler) createDataset(c *gin.Context) {
	var req datasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	dataset, err := h.datasets.Create(c.Request.Context(), c.GetString(userIDKey), req.Name, req.Description, derefTags(req.Tags))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "dataset created successfully",
		"dataset": datasetToResponse(*dataset),
	})
}

func (h *Handler) getDataset(c *gin.Context) {
	dataset, err := h.datasets.Get(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dataset": datasetToResponse(*dataset)})
}

func (h *Handler) updateDataset(c *gin.Context) {
	var req datasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	dataset, err := h.datasets.Update(c.Request.Context(), c.Param("id"), c.GetString(userIDKey), req.Name, req.Description, derefTags(req.Tags))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "dataset updated successfully",
		"dataset": datasetToResponse(*dataset),
	})
}

func (h *Handler) deleteDataset(c *gin.Context) {
	dataset, err := h.datasets.Delete(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "dataset deleted successfully",
		"dataset": datasetToResponse(*dataset),
	})
}

// writeServiceError translates service layer failures into the response
// taxonomy. Anything unrecognized becomes a 500 with a generic message
// unless debug mode is on.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	var inputErr *service.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(c, http.StatusBadRequest, inputErr.Reason)
	case errors.Is(err, service.ErrUserAlreadyExists):
		writeError(c, http.StatusConflict, "user already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrDatasetNotFound):
		writeError(c, http.StatusNotFound, "dataset not found")
	default:
		h.logger.Errorf("request to %s failed: %v", c.Request.URL.Path, err)
		message := "internal server error"
		if h.debug {
			message = err.Error()
		}
		writeError(c, http.StatusInternalServerError, message)
	}
}

func datasetToResponse(dataset domain.Dataset) DatasetResponse {
	tags := dataset.Tags
	if tags == nil {
		tags = []string{}
	}
	return DatasetResponse{
		ID:          dataset.ID,
		Name:        dataset.Name,
		Description: dataset.Description,
		Tags:        tags,
		CreatedAt:   dataset.CreatedAt.Format(time.RFC3339),
		UserID:      dataset.UserID,
	}
}

func derefTags(tags *[]string) []string {
	if tags == nil {
		return nil
	}
	if *tags == nil {
		return nil
	}
	return *tags
}
