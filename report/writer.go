package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vmihailenco/msgpack/v5"
)

// Format names a report encoding.
type Format string

// Supported report formats.
const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Encode renders r in the named format.
func Encode(format Format, r *Report) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(r, "", "  ")
	case FormatMsgpack:
		return msgpack.Marshal(r)
	default:
		return nil, &UnknownFormatError{Format: string(format)}
	}
}

// UnknownFormatError is returned by Encode/Write for an unrecognized
// report format.
type UnknownFormatError struct{ Format string }

func (e *UnknownFormatError) Error() string { return "unknown report format: " + e.Format }

// Write encodes r in format and writes it to destination, a local file
// path or an "s3://bucket/key" destination (grounded on
// quarry/lode/client_s3.go's AWS SDK v2 wiring, same as the loader's
// s3:// source support).
func Write(ctx context.Context, r *Report, format Format, destination string) error {
	data, err := Encode(format, r)
	if err != nil {
		return err
	}

	bucket, key, ok := parseS3Destination(destination)
	if !ok {
		if destination == "" {
			return errors.New("report: empty destination path")
		}
		return os.WriteFile(destination, data, 0o644)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("report: loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}); err != nil {
		return fmt.Errorf("report: writing s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// parseS3Destination splits an "s3://bucket/key" destination into its
// bucket and key components.
func parseS3Destination(destination string) (bucket, key string, ok bool) {
	const prefix = "s3://"
	if !strings.HasPrefix(destination, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(destination, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
