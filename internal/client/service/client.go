// Package service talks to an ingestgate server: uploads over HTTP and
// health checks over gRPC.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"github.com/dmitrijs2005/ingestgate/internal/netx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

// Upload is one file submission.
type Upload struct {
	Username string
	Secret   string
	Method   string
	// Filename is the declared target name; empty sends none.
	Filename string
	// LocalName is the name of the file part.
	LocalName string
	Checksum  string
	Body      io.Reader
}

// Result is the decoded server answer.
type Result struct {
	Status int            `json:"-"`
	MD5    string         `json:"md5"`
	Error  map[string]any `json:"error,omitempty"`
}

// Accepted reports a 201 answer.
func (r *Result) Accepted() bool { return r.Status == http.StatusCreated }

type GatewayClientService struct {
	httpURL  string
	grpcAddr string
	http     *http.Client
	conn     *grpc.ClientConn
	health   healthpb.HealthClient
	dialOpts []grpc.DialOption
}

func NewGatewayClientService(httpURL, grpcAddr string, c *http.Client, opts ...grpc.DialOption) *GatewayClientService {
	return &GatewayClientService{
		httpURL:  strings.TrimRight(httpURL, "/"),
		grpcAddr: grpcAddr,
		http:     c,
		dialOpts: opts,
	}
}

func (s *GatewayClientService) requestIDInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if id := logging.RequestID(ctx); id != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", id)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GatewayClientService) initGRPCClient() error {
	if s.conn != nil {
		return nil
	}
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.requestIDInterceptor),
	}, s.dialOpts...)
	conn, err := grpc.NewClient(s.grpcAddr, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.health = healthpb.NewHealthClient(conn)
	return nil
}

// Health returns the overall serving status name, e.g. "SERVING".
func (s *GatewayClientService) Health(ctx context.Context) (string, error) {
	if err := s.initGRPCClient(); err != nil {
		return "", err
	}
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return "", err
	}
	return resp.GetStatus().String(), nil
}

func (s *GatewayClientService) Upload(ctx context.Context, u Upload) (*Result, error) {
	fields := map[string]string{
		common.FieldUsername: u.Username,
		common.FieldMethod:   u.Method,
		common.FieldChecksum: u.Checksum,
	}
	if u.Filename != "" {
		fields[common.FieldFilename] = u.Filename
	}
	h := http.Header{}
	h.Set(common.SecretHeaderName, u.Secret)

	status, body, err := netx.PostMultipart(ctx, s.http, s.httpURL+"/api/upload/", fields,
		netx.Part{Field: common.FieldFile, Filename: u.LocalName, Body: u.Body}, h)
	if err != nil {
		return nil, err
	}

	res := &Result{Status: status}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, fmt.Errorf("unexpected response (%d): %s", status, strings.TrimSpace(string(body)))
	}
	return res, nil
}

func (s *GatewayClientService) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
