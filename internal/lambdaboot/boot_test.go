package lambdaboot

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeParams struct {
	value   string
	err     error
	gotName string
	calls   int
}

func (f *fakeParams) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.gotName = aws.ToString(in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)}}, nil
}

func TestLoadGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SSM_API_KEY_PARAM", "")
	f := &fakeParams{value: "from-ssm"}

	if err := LoadGeminiKey(context.Background(), f); err != nil {
		t.Fatalf("LoadGeminiKey() error = %v", err)
	}
	if f.gotName != DefaultAPIKeyParam {
		t.Errorf("parameter = %q, want %q", f.gotName, DefaultAPIKeyParam)
	}
	if got := os.Getenv("GEMINI_API_KEY"); got != "from-ssm" {
		t.Errorf("GEMINI_API_KEY = %q", got)
	}
}

func TestLoadGeminiKey_EnvWins(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	f := &fakeParams{value: "from-ssm"}

	if err := LoadGeminiKey(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if f.calls != 0 {
		t.Errorf("SSM called %d times, want 0", f.calls)
	}
}

func TestLoadGeminiKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeParams
	}{
		{"ssm failure", &fakeParams{err: errors.New("AccessDenied")}},
		{"empty value", &fakeParams{value: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("SSM_API_KEY_PARAM", "/custom/key")

			if err := LoadGeminiKey(context.Background(), tt.f); err == nil {
				t.Fatal("expected error")
			}
			if tt.f.gotName != "/custom/key" {
				t.Errorf("parameter = %q", tt.f.gotName)
			}
		})
	}
}

func TestInitS3_RequiresBucket(t *testing.T) {
	if _, err := InitS3(aws.Config{}, ""); err == nil {
		t.Error("expected error for empty bucket")
	}
	clients, err := InitS3(aws.Config{Region: "us-east-1"}, "uploads")
	if err != nil {
		t.Fatal(err)
	}
	if clients.Client == nil || clients.Presigner == nil || clients.Bucket != "uploads" {
		t.Errorf("clients = %+v", clients)
	}
}
