package blob

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Provider serves blobs from an S3 bucket, and by virtue of the same
// API also serves MinIO and GCS in interoperability mode when given a
// custom endpoint.
type S3Provider struct {
	client *s3.Client
	bucket string
}

// S3Options configures an S3Provider. Endpoint is left empty for AWS
// itself; set it to point at a MinIO or GCS interoperability endpoint.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3Provider builds a provider from static or ambient AWS credentials.
func NewS3Provider(ctx context.Context, opts S3Options) (*S3Provider, error) {
	var cfgOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Key: opts.Bucket, Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Provider{client: client, bucket: opts.Bucket}, nil
}

func (p *S3Provider) List(ctx context.Context, prefix string) ([]Descriptor, error) {
	var out []Descriptor
	var token *string
	for {
		resp, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(p.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, wrapS3Error(prefix, err)
		}
		for _, obj := range resp.Contents {
			out = append(out, Descriptor{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)})
		}
		if !aws.ToBool(resp.IsTruncated) {
			break
		}
		token = resp.NextContinuationToken
	}
	return out, nil
}

func (p *S3Provider) Open(ctx context.Context, d Descriptor) (io.ReadCloser, error) {
	resp, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(d.Key),
	})
	if err != nil {
		return nil, wrapS3Error(d.Key, err)
	}
	return resp.Body, nil
}

func (p *S3Provider) Head(ctx context.Context, d Descriptor) (Info, error) {
	resp, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(d.Key),
	})
	if err != nil {
		return Info{}, wrapS3Error(d.Key, err)
	}
	info := Info{Size: aws.ToInt64(resp.ContentLength), ContentType: aws.ToString(resp.ContentType)}
	if resp.LastModified != nil {
		info.LastModified = *resp.LastModified
	}
	return info, nil
}

func wrapS3Error(key string, err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 404:
			return &Error{Kind: KindNotFound, Key: key, Err: err}
		case 403:
			return &Error{Kind: KindAccessDenied, Key: key, Err: err}
		}
	}
	if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound") {
		return &Error{Kind: KindNotFound, Key: key, Err: err}
	}
	return &Error{Kind: KindTransient, Key: key, Err: err}
}

var _ Fetcher = (*S3Provider)(nil)
