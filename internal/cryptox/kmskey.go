package cryptox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/dmitrijs2005/facekeeper/internal/filex"
	"github.com/fxamacker/cbor/v2"
)

type kmsAPI interface {
	GenerateDataKey(ctx context.Context, in *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
	Decrypt(ctx context.Context, in *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSKey stores only the KMS-wrapped data key at Path. The plaintext key is
// obtained from KMS on each Load.
type KMSKey struct {
	Path   string
	KeyID  string
	client kmsAPI
}

// NewKMSKey builds a KMSKey using the default AWS credential chain.
func NewKMSKey(ctx context.Context, path, keyID, region string) (*KMSKey, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return &KMSKey{Path: path, KeyID: keyID, client: kms.NewFromConfig(cfg)}, nil
}

func (k *KMSKey) Load(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(k.Path)
	if errors.Is(err, os.ErrNotExist) {
		return k.create(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var env keyEnvelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	if len(env.Blob) == 0 {
		return nil, fmt.Errorf("key file %s holds no KMS blob", k.Path)
	}

	keyID := env.KMSKey
	if keyID == "" {
		keyID = k.KeyID
	}

	out, err := k.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: env.Blob,
		KeyId:          aws.String(keyID),
	})
	if err != nil {
		return nil, fmt.Errorf("kms decrypt: %w", err)
	}
	if len(out.Plaintext) != KeySize {
		return nil, fmt.Errorf("kms returned %d-byte key", len(out.Plaintext))
	}

	return out.Plaintext, nil
}

func (k *KMSKey) create(ctx context.Context) ([]byte, error) {
	if k.KeyID == "" {
		return nil, errors.New("kms key id is not configured")
	}

	out, err := k.client.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(k.KeyID),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return nil, fmt.Errorf("kms generate data key: %w", err)
	}

	data, err := cbor.Marshal(keyEnvelope{
		Version: 1,
		Created: time.Now().Unix(),
		KMSKey:  aws.ToString(out.KeyId),
		Blob:    out.CiphertextBlob,
	})
	if err != nil {
		return nil, fmt.Errorf("encode key file: %w", err)
	}

	if err := filex.WriteFileAtomic(k.Path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return out.Plaintext, nil
}
