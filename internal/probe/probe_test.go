package probe_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/sigscan/internal/fs/mocks"
	"github.com/ostafen/sigscan/internal/probe"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func writeFile(t *testing.T, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "target.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func requireKind(t *testing.T, err error, kind probe.Kind) {
	t.Helper()

	require.Error(t, err)
	require.ErrorIs(t, err, kind)

	var perr *probe.Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, kind, perr.Kind)
}

func TestCalculateFileSize(t *testing.T) {
	for _, size := range []int{0, 1, 10, 4096} {
		path := writeFile(t, size)

		got, err := probe.CalculateFileSize(path)
		require.NoError(t, err)
		require.Equal(t, uint64(size), got)
	}
}

func TestCalculateArguments(t *testing.T) {
	p := probe.New(nil, nil)

	_, err := p.Calculate("")
	requireKind(t, err, probe.KindNilPath)

	err = p.CalculateInto(writeFile(t, 8), nil)
	requireKind(t, err, probe.KindNilSize)
}

func TestCalculateOpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bin")

	_, err := probe.CalculateFileSize(path)
	requireKind(t, err, probe.KindOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Contains(t, err.Error(), path)
}

func TestCalculateStepFailures(t *testing.T) {
	errIO := errors.New("device not ready")

	tests := []struct {
		name   string
		expect func(f *mocks.MockFile)
		kind   probe.Kind
	}{
		{
			name: "seek end",
			expect: func(f *mocks.MockFile) {
				gomock.InOrder(
					f.EXPECT().Seek(int64(0), io.SeekEnd).Return(int64(0), errIO),
					f.EXPECT().Close().Return(nil),
				)
			},
			kind: probe.KindSeekEnd,
		},
		{
			name: "tell",
			expect: func(f *mocks.MockFile) {
				gomock.InOrder(
					f.EXPECT().Seek(int64(0), io.SeekEnd).Return(int64(100), nil),
					f.EXPECT().Seek(int64(0), io.SeekCurrent).Return(int64(0), errIO),
					f.EXPECT().Close().Return(nil),
				)
			},
			kind: probe.KindTell,
		},
		{
			name: "close",
			expect: func(f *mocks.MockFile) {
				gomock.InOrder(
					f.EXPECT().Seek(int64(0), io.SeekEnd).Return(int64(100), nil),
					f.EXPECT().Seek(int64(0), io.SeekCurrent).Return(int64(100), nil),
					f.EXPECT().Close().Return(errIO),
				)
			},
			kind: probe.KindClose,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			file := mocks.NewMockFile(ctrl)
			opener := mocks.NewMockOpener(ctrl)
			opener.EXPECT().Open("target.exe").Return(file, nil)
			tc.expect(file)

			_, err := probe.New(opener, nil).Calculate("target.exe")
			requireKind(t, err, tc.kind)
			require.ErrorIs(t, err, errIO)
		})
	}
}

func TestCalculateNegativePosition(t *testing.T) {
	ctrl := gomock.NewController(t)

	file := mocks.NewMockFile(ctrl)
	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().Open("target.exe").Return(file, nil)
	file.EXPECT().Seek(int64(0), io.SeekEnd).Return(int64(0), nil)
	file.EXPECT().Seek(int64(0), io.SeekCurrent).Return(int64(-1), nil)
	file.EXPECT().Close().Return(nil)

	_, err := probe.New(opener, nil).Calculate("target.exe")
	requireKind(t, err, probe.KindTell)
}
