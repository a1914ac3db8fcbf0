package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/plant-disease-api/internal/apierr"
	"github.com/Brownie44l1/plant-disease-api/internal/model"
	"github.com/Brownie44l1/plant-disease-api/internal/preprocess"
)

const (
	msgModelNotLoaded  = "Model not loaded"
	msgModelNotReady   = "Model not loaded. Please restart the server."
	msgNoImage         = "No image file provided"
	msgEmptyFilename   = "Empty filename"
	msgImageTooLarge   = "Image file too large"
	defaultUploadLimit = 10 << 20
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 1 << 16
)

// Handler serves the HTTP API. classifier is nil when the model failed to load.
type Handler struct {
	classifier *model.Classifier
	maxUpload  int64
}

func NewHandler(classifier *model.Classifier, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultUploadLimit
	}
	return &Handler{
		classifier: classifier,
		maxUpload:  maxUpload,
	}
}

type homeResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	ModelLoaded bool   `json:"model_loaded"`
	NumClasses  int    `json:"num_classes"`
}

type modelHealth struct {
	Loaded     bool   `json:"loaded"`
	Classes    int    `json:"classes"`
	InputShape string `json:"input_shape"`
}

type healthResponse struct {
	Status string      `json:"status"`
	Server string      `json:"server"`
	Model  modelHealth `json:"model"`
}

type classesResponse struct {
	Status  string   `json:"status"`
	Classes []string `json:"classes"`
	Count   int      `json:"count"`
}

type predictResponse struct {
	Status string `json:"status"`
	*model.Result
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) numClasses() int {
	if h.classifier == nil {
		return 0
	}
	return h.classifier.NumClasses()
}

func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, homeResponse{
		Status:      "success",
		Message:     "Plant Disease Prediction API is running",
		ModelLoaded: h.classifier != nil,
		NumClasses:  h.numClasses(),
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status: "success",
		Server: "running",
		Model: modelHealth{
			Loaded:     h.classifier != nil,
			Classes:    h.numClasses(),
			InputShape: fmt.Sprintf("%dx%d", preprocess.Height, preprocess.Width),
		},
	})
}

func (h *Handler) Classes(c *gin.Context) {
	if h.classifier == nil {
		h.fail(c, apierr.New(msgModelNotLoaded))
		return
	}
	classes := h.classifier.Classes()
	c.JSON(http.StatusOK, classesResponse{
		Status:  "success",
		Classes: classes,
		Count:   len(classes),
	})
}

func (h *Handler) Predict(c *gin.Context) {
	if h.classifier == nil {
		h.fail(c, apierr.New(msgModelNotReady))
		return
	}

	data, err := h.readImage(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.classifier.Classify(c.Request.Context(), data)
	if err != nil {
		logrus.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("Prediction failed")
		h.fail(c, apierr.Internal(err))
		return
	}

	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"class":      result.Prediction.Class,
		"confidence": result.Prediction.Confidence,
		"reliable":   result.Reliable,
	}).Debug("Prediction served")

	c.JSON(http.StatusOK, predictResponse{Status: "success", Result: result})
}

// readImage returns the bytes of the multipart "image" file.
func (h *Handler) readImage(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, apierr.BadRequest(msgImageTooLarge)
		}
		// multipart stores a part without a filename as a plain value, so an
		// "image" text field is indistinguishable from a file part with an
		// empty filename; both are answered as an empty filename.
		if form := c.Request.MultipartForm; form != nil {
			if _, ok := form.Value["image"]; ok {
				return nil, apierr.BadRequest(msgEmptyFilename)
			}
		}
		return nil, apierr.BadRequest(msgNoImage)
	}
	if header.Filename == "" {
		return nil, apierr.BadRequest(msgEmptyFilename)
	}

	file, err := header.Open()
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to open uploaded file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to read uploaded file: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"filename":   header.Filename,
		"bytes":      len(data),
	}).Debug("Received image")

	return data, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apierr.Status(err), errorResponse{
		Status:  "error",
		Message: err.Error(),
	})
}
