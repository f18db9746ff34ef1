package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
)

type StubS3 struct {
	objects map[string][]byte
	keys    []string
}

func (s *StubS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	s.keys = append(s.keys, aws.ToString(params.Bucket)+"/"+key)
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestS3Fetcher(t *testing.T) {
	a := assert.New(t)
	storageLocation := apitype.NewStorageImageLocation(2, 300, 4, 0, 0)
	geo := apitype.GeoPointLocation{Lat: 1.5, Lon: 2.5, Width: 10, Height: 10, Zoom: 13, Scale: 1}
	client := &StubS3{objects: map[string][]byte{
		storageLocation.ObjectKey(): {1, 2, 3},
		geo.ObjectKey():             {4, 5},
	}}
	fetcher := newS3Fetcher(client, "media")

	lastTotal := 0
	data, err := fetcher.Fetch(context.Background(), &api.LoadRequest{Location: storageLocation}, func(offset int, total int) {
		lastTotal = total
	})
	require.NoError(t, err)
	a.Equal([]byte{1, 2, 3}, data)
	a.Equal(3, lastTotal)
	a.Equal([]string{"media/2/300_4"}, client.keys)

	data, err = fetcher.Fetch(context.Background(), &api.LoadRequest{Geo: &geo}, func(int, int) {})
	require.NoError(t, err)
	a.Equal([]byte{4, 5}, data)

	_, err = fetcher.Fetch(context.Background(), &api.LoadRequest{Location: apitype.NewStorageImageLocation(2, 301, 4, 0, 0)}, func(int, int) {})
	a.ErrorContains(err, "NoSuchKey")

	_, err = fetcher.Fetch(context.Background(), &api.LoadRequest{}, func(int, int) {})
	a.ErrorIs(err, api.ErrUnsupportedLocation)
}

func TestS3Config(t *testing.T) {
	a := assert.New(t)

	a.False(S3Config{}.IsEnabled())
	a.True(S3Config{Bucket: "media"}.IsEnabled())

	_, err := NewS3Fetcher(context.Background(), S3Config{})
	a.Error(err)
}
