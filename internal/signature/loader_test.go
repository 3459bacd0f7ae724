package signature_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ostafen/sigscan/internal/fs/mocks"
	"github.com/ostafen/sigscan/internal/signature"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func writeDefinition(t *testing.T, text string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "signature.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func mockDefinition(ctrl *gomock.Controller, data string) *mocks.MockFile {
	f := mocks.NewMockFile(ctrl)
	f.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return copy(p, data), io.EOF
	})
	return f
}

func TestReadSignature(t *testing.T) {
	path := writeDefinition(t, "DE AD 64 TEST.A\n")

	vs, err := signature.ReadSignature(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD}, vs.Signature())
	require.Equal(t, uint64(64), vs.Offset())
	require.Equal(t, "TEST.A", vs.VirusName())
}

func TestReadRoundTrip(t *testing.T) {
	for _, text := range []string{
		"DEAD 64 TEST.A",
		"4D5A900003000000 4660 ExampleVirus",
		"FF 0 Edge",
	} {
		vs, err := signature.ReadSignature(writeDefinition(t, text))
		require.NoError(t, err)

		out, err := vs.MarshalText()
		require.NoError(t, err)
		require.Equal(t, text, string(out))
	}
}

func TestReadArguments(t *testing.T) {
	l := signature.NewLoader(nil, nil)

	_, err := l.Read("")
	require.ErrorIs(t, err, signature.KindNilPath)

	err = l.ReadInto(writeDefinition(t, "DEAD 64 TEST.A"), nil)
	require.ErrorIs(t, err, signature.KindNilDestination)
}

func TestReadOpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	_, err := signature.ReadSignature(path)
	require.ErrorIs(t, err, signature.KindOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFieldErrorsCarryPath(t *testing.T) {
	tests := []struct {
		text string
		kind signature.Kind
	}{
		{"", signature.KindSignature},
		{"ZZ 64 TEST.A", signature.KindSignature},
		{"DEAD", signature.KindOffset},
		{"DEAD 64", signature.KindName},
		{"12 34 56\n", signature.KindName},
	}

	for _, tc := range tests {
		path := writeDefinition(t, tc.text)

		_, err := signature.ReadSignature(path)
		require.ErrorIs(t, err, tc.kind)

		var serr *signature.Error
		require.True(t, errors.As(err, &serr))
		require.Equal(t, path, serr.Path)
		require.Contains(t, err.Error(), path)
	}
}

func TestReadOversizedDefinition(t *testing.T) {
	path := writeDefinition(t, "DEAD 64 "+strings.Repeat("A", signature.MaxDefinitionSize))

	_, err := signature.ReadSignature(path)
	require.ErrorIs(t, err, signature.KindSignature)
}

func TestReadIntoLeavesDestinationOnFailure(t *testing.T) {
	dst, err := signature.New([]byte{1, 2}, 3, "Keep")
	require.NoError(t, err)

	err = signature.NewLoader(nil, nil).ReadInto(writeDefinition(t, "DEAD 64"), dst)
	require.ErrorIs(t, err, signature.KindName)
	require.Equal(t, "Keep", dst.VirusName())
	require.Equal(t, []byte{1, 2}, dst.Signature())
}

func TestReadCloseError(t *testing.T) {
	ctrl := gomock.NewController(t)
	errClose := errors.New("close: input/output error")

	file := mockDefinition(ctrl, "DEAD 64 TEST.A")
	file.EXPECT().Close().Return(errClose)

	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().Open("signature.txt").Return(file, nil)

	_, err := signature.NewLoader(opener, nil).Read("signature.txt")
	require.ErrorIs(t, err, signature.KindClose)
	require.ErrorIs(t, err, errClose)
}

func TestReadClosesOnParseError(t *testing.T) {
	ctrl := gomock.NewController(t)

	file := mockDefinition(ctrl, "DEAD x TEST.A")
	file.EXPECT().Close().Return(nil).Times(1)

	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().Open("signature.txt").Return(file, nil).Times(1)

	_, err := signature.NewLoader(opener, nil).Read("signature.txt")
	require.ErrorIs(t, err, signature.KindOffset)
}

func TestReadIOError(t *testing.T) {
	ctrl := gomock.NewController(t)
	errRead := errors.New("read: input/output error")

	file := mocks.NewMockFile(ctrl)
	file.EXPECT().Read(gomock.Any()).Return(0, errRead)
	file.EXPECT().Close().Return(nil)

	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().Open("signature.txt").Return(file, nil)

	_, err := signature.NewLoader(opener, nil).Read("signature.txt")
	require.ErrorIs(t, err, signature.KindSignature)
	require.ErrorIs(t, err, errRead)
}
