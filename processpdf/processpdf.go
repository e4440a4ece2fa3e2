// Package processpdf implements the S3-triggered text extraction stage of
// the analysis pipeline. An uploaded PDF arrives with identifying object
// metadata; the handler extracts its text, records progress in the analysis
// store and hands the text to the downstream API.
//
// Failure handling is tiered: a metadata failure without an analysis id can
// only be reported, a metadata failure with an id records FAILED first, an
// empty extraction is a recoverable user-visible FAILED state (400), and
// every other error is caught at the top level, recorded as FAILED and
// reported as 500. The handler never panics past its boundary.
package processpdf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/groupmesh/analysis"
	"github.com/hupe1980/groupmesh/extract"
	"github.com/hupe1980/groupmesh/logging"
)

// S3Client is the subset of the S3 API the handler uses.
type S3Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Response is the function's exit contract: 200 on success, 400 when no
// text could be extracted, 500 for everything else. Body is a JSON document.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// objectMeta is the identifying metadata set on the object at upload time.
type objectMeta struct {
	AnalysisID        string
	UserID            string
	UserSelectedState string
	OriginalFilename  string
}

// Options configure a Handler.
type Options struct {
	// Extractor converts document bytes to text.
	Extractor extract.Extractor
	// Logger receives structured progress and failure logs.
	Logger logging.Logger
}

// Handler processes one S3 upload event.
type Handler struct {
	s3Client  S3Client
	records   analysis.RecordStore
	notifier  Notifier
	extractor extract.Extractor
	logger    logging.Logger
}

// NewHandler constructs a Handler.
func NewHandler(s3Client S3Client, records analysis.RecordStore, notifier Notifier, optFns ...func(o *Options)) *Handler {
	opts := Options{
		Extractor: extract.NewPDFExtractor(),
		Logger:    logging.NewDefaultSlogLogger(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Handler{
		s3Client:  s3Client,
		records:   records,
		notifier:  notifier,
		extractor: opts.Extractor,
		logger:    opts.Logger,
	}
}

// Handle processes the first record of the event. All failure paths resolve
// to a Response; the returned error is always nil so the invocation itself
// is never marked failed for document-level problems.
func (h *Handler) Handle(ctx context.Context, event events.S3Event) (Response, error) {
	if len(event.Records) == 0 {
		return errorResponse("event contains no records", ""), nil
	}

	bucket := event.Records[0].S3.Bucket.Name
	key, err := url.QueryUnescape(event.Records[0].S3.Object.Key)
	if err != nil {
		return errorResponse(fmt.Sprintf("decode object key: %v", err), ""), nil
	}

	h.logger.Info("processpdf.start", "bucket", bucket, "key", key)

	meta, err := h.objectMetadata(ctx, bucket, key)
	if err != nil {
		// Without an analysis id there is no record to mark failed.
		if meta.AnalysisID != "" {
			h.recordFailure(ctx, meta.AnalysisID, fmt.Sprintf("metadata retrieval error: %v", err))
		}
		h.logger.Error("processpdf.metadata.error", "bucket", bucket, "key", key, "error", err.Error())

		return errorResponse(err.Error(), meta.AnalysisID), nil
	}

	resp, err := h.processObject(ctx, bucket, key, meta)
	if err != nil {
		h.recordFailure(ctx, meta.AnalysisID, err.Error())
		h.logger.Error("processpdf.error", "analysis_id", meta.AnalysisID, "error", err.Error())

		return errorResponse(err.Error(), meta.AnalysisID), nil
	}

	return resp, nil
}

func (h *Handler) processObject(ctx context.Context, bucket, key string, meta objectMeta) (Response, error) {
	obj, err := h.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Response{}, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read object body: %w", err)
	}

	text, err := h.extractor.ExtractText(ctx, data)
	if err != nil {
		return Response{}, fmt.Errorf("extract text: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		h.logger.Warn("processpdf.empty", "analysis_id", meta.AnalysisID, "key", key)
		h.recordFailure(ctx, meta.AnalysisID, "No text could be extracted. The PDF might be image-based or empty.")

		return jsonResponse(400, map[string]string{"error": "No text extracted from PDF."}), nil
	}

	if err := h.records.Apply(ctx, meta.AnalysisID, analysis.Update{
		Status:            analysis.StatusTextExtractionComplete,
		S3Key:             key,
		FileName:          meta.OriginalFilename,
		UserID:            meta.UserID,
		UserSelectedState: meta.UserSelectedState,
	}); err != nil {
		return Response{}, fmt.Errorf("record extraction result: %w", err)
	}

	if err := h.notifier.Notify(ctx, Notification{
		AnalysisID:        meta.AnalysisID,
		S3Bucket:          bucket,
		S3Key:             key,
		ExtractedText:     text,
		UserSelectedState: meta.UserSelectedState,
	}); err != nil {
		return Response{}, fmt.Errorf("notify downstream: %w", err)
	}

	h.logger.Info("processpdf.complete", "analysis_id", meta.AnalysisID, "text_len", len(text))

	return jsonResponse(200, map[string]string{
		"message":    "Text extracted and analysis initiated.",
		"analysisId": meta.AnalysisID,
	}), nil
}

// objectMetadata reads the identifying metadata from the object head. The
// analysis id is mandatory; the other fields fall back to neutral defaults.
func (h *Handler) objectMetadata(ctx context.Context, bucket, key string) (objectMeta, error) {
	meta := objectMeta{OriginalFilename: path.Base(key)}

	head, err := h.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return meta, fmt.Errorf("head object s3://%s/%s: %w", bucket, key, err)
	}

	meta.AnalysisID = head.Metadata["analysis-id"]
	meta.UserID = head.Metadata["user-id"]
	meta.UserSelectedState = head.Metadata["user-selected-state"]
	if fn := head.Metadata["original-filename"]; fn != "" {
		meta.OriginalFilename = fn
	}

	if meta.AnalysisID == "" {
		return meta, fmt.Errorf("missing analysis-id in object metadata for s3://%s/%s", bucket, key)
	}

	return meta, nil
}

// recordFailure marks the analysis FAILED. A secondary failure while
// recording is only logged so the original error stays the reported one.
func (h *Handler) recordFailure(ctx context.Context, analysisID, details string) {
	if analysisID == "" {
		return
	}

	if err := h.records.Apply(ctx, analysisID, analysis.Update{
		Status:       analysis.StatusFailed,
		ErrorDetails: details,
	}); err != nil {
		h.logger.Error("processpdf.record_failure.error", "analysis_id", analysisID, "error", err.Error())
	}
}

func errorResponse(message, analysisID string) Response {
	body := map[string]string{"error": message}
	if analysisID != "" {
		body["analysisId"] = analysisID
	}

	return jsonResponse(500, body)
}

func jsonResponse(status int, body map[string]string) Response {
	data, err := json.Marshal(body)
	if err != nil {
		data = []byte(`{"error":"encode response body"}`)
	}

	return Response{StatusCode: status, Body: string(data)}
}
