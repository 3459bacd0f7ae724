package scanner_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/sigscan/internal/fs/mocks"
	"github.com/ostafen/sigscan/internal/probe"
	"github.com/ostafen/sigscan/internal/scanner"
	"github.com/ostafen/sigscan/internal/signature"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"
)

var errIO = errors.New("input/output error")

func testSignature(t *testing.T) *signature.VirusSignature {
	t.Helper()

	vs, err := signature.New([]byte{0xDE, 0xAD}, 64, "TEST.A")
	require.NoError(t, err)
	return vs
}

// peImage returns a 4096 byte image starting with "MZ" and holding 0xDE 0xAD at offset 64.
func peImage() []byte {
	data := make([]byte, 4096)
	copy(data, "MZ")
	data[64] = 0xDE
	data[65] = 0xAD
	return data
}

func writeTarget(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "target.exe")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func requireKind(t *testing.T, err error, kind scanner.Kind) {
	t.Helper()

	require.Error(t, err)
	require.ErrorIs(t, err, kind)

	var serr *scanner.Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, kind, serr.Kind)
}

func TestScanFileScenario(t *testing.T) {
	sc := scanner.New(nil, nil)
	vs := testSignature(t)

	res, err := sc.ScanFile(writeTarget(t, peImage()), vs)
	require.NoError(t, err)
	require.True(t, res.Detected())
	require.Equal(t, "TEST.A", res.VirusName)
	require.Equal(t, uint64(4096), res.Size)
	require.NoError(t, res.CloseErr)

	clean := peImage()
	clean[64], clean[65] = 0x00, 0x00
	res, err = sc.ScanFile(writeTarget(t, clean), vs)
	require.NoError(t, err)
	require.Equal(t, scanner.VerdictClean, res.Verdict)
	require.Empty(t, res.VirusName)

	_, err = sc.ScanFile(writeTarget(t, peImage()[:10]), vs)
	requireKind(t, err, scanner.KindTooSmall)

	notPE := peImage()
	copy(notPE, "ZZ")
	_, err = sc.ScanFile(writeTarget(t, notPE), vs)
	requireKind(t, err, scanner.KindNotPE)
}

func TestScanFileSingleByteDifference(t *testing.T) {
	sc := scanner.New(nil, nil)

	vs, err := signature.New([]byte{0x4D, 0x5A, 0x90, 0x00, 0x03, 0x00, 0x00, 0x00}, 128, "Window")
	require.NoError(t, err)

	data := make([]byte, 1024)
	copy(data, "MZ")
	copy(data[128:], vs.Signature())

	res, err := sc.ScanFile(writeTarget(t, data), vs)
	require.NoError(t, err)
	require.True(t, res.Detected())

	for i := 0; i < vs.Len(); i++ {
		for _, delta := range []byte{0x01, 0x80, 0xFF} {
			altered := append([]byte(nil), data...)
			altered[128+i] ^= delta

			res, err := sc.ScanFile(writeTarget(t, altered), vs)
			require.NoError(t, err)
			require.False(t, res.Detected(), "byte %d xor %#x", i, delta)
		}
	}
}

func TestScanFileWindowAtEnd(t *testing.T) {
	sc := scanner.New(nil, nil)

	vs, err := signature.New([]byte{0xCA, 0xFE}, 98, "Tail")
	require.NoError(t, err)

	data := make([]byte, 100)
	copy(data, "MZ")
	data[98], data[99] = 0xCA, 0xFE

	res, err := sc.ScanFile(writeTarget(t, data), vs)
	require.NoError(t, err)
	require.True(t, res.Detected())

	// one byte short of the window
	_, err = sc.ScanFile(writeTarget(t, data[:99]), vs)
	requireKind(t, err, scanner.KindTooSmall)
}

func TestScanFileSignatureOverlappingHeader(t *testing.T) {
	vs, err := signature.New([]byte("MZ"), 0, "Header")
	require.NoError(t, err)

	res, err := scanner.New(nil, nil).ScanFile(writeTarget(t, []byte("MZ")), vs)
	require.NoError(t, err)
	require.True(t, res.Detected())
}

func TestScanFileMinimumSize(t *testing.T) {
	vs, err := signature.New([]byte{0x00}, 0, "Tiny")
	require.NoError(t, err)

	// the window fits but the MZ marker does not
	_, err = scanner.New(nil, nil).ScanFile(writeTarget(t, []byte{'M'}), vs)
	requireKind(t, err, scanner.KindTooSmall)
}

func TestScanFileArguments(t *testing.T) {
	sc := scanner.New(nil, nil)

	_, err := sc.ScanFile("", testSignature(t))
	requireKind(t, err, scanner.KindNilPath)

	_, err = sc.ScanFile(writeTarget(t, peImage()), nil)
	requireKind(t, err, scanner.KindNilSignature)
}

func TestScanFileProbeErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.exe")

	_, err := scanner.New(nil, nil).ScanFile(path, testSignature(t))
	requireKind(t, err, scanner.KindProbeOpen)
	require.ErrorIs(t, err, probe.KindOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestKindFromProbe(t *testing.T) {
	tests := map[probe.Kind]scanner.Kind{
		probe.KindNilPath: scanner.KindProbeNilPath,
		probe.KindNilSize: scanner.KindProbeNilSize,
		probe.KindOpen:    scanner.KindProbeOpen,
		probe.KindSeekEnd: scanner.KindProbeSeekEnd,
		probe.KindTell:    scanner.KindProbeTell,
		probe.KindClose:   scanner.KindProbeClose,
	}

	seen := map[scanner.Kind]bool{}
	for pk, sk := range tests {
		require.Equal(t, sk, scanner.KindFromProbe(pk))
		require.Contains(t, sk.String(), pk.String())
		seen[sk] = true
	}
	require.Len(t, seen, len(tests))
}

func TestKindsAreDistinct(t *testing.T) {
	names := map[string]scanner.Kind{}
	for k := scanner.KindNilPath; k <= scanner.KindClose; k++ {
		name := k.String()
		_, dup := names[name]
		require.False(t, dup, "duplicate description %q", name)
		names[name] = k
	}
}

// expectProbe sets up the size probe of a file reporting size bytes.
func expectProbe(f *mocks.MockFile, size int64) {
	gomock.InOrder(
		f.EXPECT().Seek(int64(0), io.SeekEnd).Return(size, nil),
		f.EXPECT().Seek(int64(0), io.SeekCurrent).Return(size, nil),
		f.EXPECT().Close().Return(nil),
	)
}

func readFrom(data []byte) func(p []byte) (int, error) {
	return func(p []byte) (int, error) {
		return copy(p, data), nil
	}
}

type scanMocks struct {
	opener *mocks.MockOpener
	probed *mocks.MockFile
	target *mocks.MockFile
}

func newMocks(t *testing.T, size int64) *scanMocks {
	ctrl := gomock.NewController(t)

	m := &scanMocks{
		opener: mocks.NewMockOpener(ctrl),
		probed: mocks.NewMockFile(ctrl),
		target: mocks.NewMockFile(ctrl),
	}
	gomock.InOrder(
		m.opener.EXPECT().Open("target.exe").Return(m.probed, nil),
		m.opener.EXPECT().Open("target.exe").Return(m.target, nil),
	)
	expectProbe(m.probed, size)
	return m
}

func TestScanFileTooSmallDoesNotOpenTarget(t *testing.T) {
	ctrl := gomock.NewController(t)

	probed := mocks.NewMockFile(ctrl)
	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().Open("target.exe").Return(probed, nil).Times(1)
	expectProbe(probed, 10)

	_, err := scanner.New(opener, nil).ScanFile("target.exe", testSignature(t))
	requireKind(t, err, scanner.KindTooSmall)
}

func TestScanFileNotPEDoesNotSeek(t *testing.T) {
	m := newMocks(t, 4096)
	gomock.InOrder(
		m.target.EXPECT().Read(gomock.Any()).DoAndReturn(readFrom([]byte("ZZ"))),
		m.target.EXPECT().Close().Return(nil),
	)

	_, err := scanner.New(m.opener, nil).ScanFile("target.exe", testSignature(t))
	requireKind(t, err, scanner.KindNotPE)
}

func TestScanFileOpenError(t *testing.T) {
	ctrl := gomock.NewController(t)

	probed := mocks.NewMockFile(ctrl)
	opener := mocks.NewMockOpener(ctrl)
	gomock.InOrder(
		opener.EXPECT().Open("target.exe").Return(probed, nil),
		opener.EXPECT().Open("target.exe").Return(nil, errIO),
	)
	expectProbe(probed, 4096)

	_, err := scanner.New(opener, nil).ScanFile("target.exe", testSignature(t))
	requireKind(t, err, scanner.KindOpen)
	require.ErrorIs(t, err, errIO)
}

func TestScanFileProbeStepErrors(t *testing.T) {
	ctrl := gomock.NewController(t)

	probed := mocks.NewMockFile(ctrl)
	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().Open("target.exe").Return(probed, nil)
	gomock.InOrder(
		probed.EXPECT().Seek(int64(0), io.SeekEnd).Return(int64(4096), nil),
		probed.EXPECT().Seek(int64(0), io.SeekCurrent).Return(int64(4096), nil),
		probed.EXPECT().Close().Return(errIO),
	)

	_, err := scanner.New(opener, nil).ScanFile("target.exe", testSignature(t))
	requireKind(t, err, scanner.KindProbeClose)
	require.ErrorIs(t, err, probe.KindClose)
}

func TestScanFilePhaseErrors(t *testing.T) {
	tests := []struct {
		name   string
		expect func(f *mocks.MockFile)
		kind   scanner.Kind
	}{
		{
			name: "header read",
			expect: func(f *mocks.MockFile) {
				gomock.InOrder(
					f.EXPECT().Read(gomock.Any()).Return(0, errIO),
					f.EXPECT().Close().Return(nil),
				)
			},
			kind: scanner.KindHeaderRead,
		},
		{
			name: "offset seek",
			expect: func(f *mocks.MockFile) {
				gomock.InOrder(
					f.EXPECT().Read(gomock.Any()).DoAndReturn(readFrom([]byte("MZ"))),
					f.EXPECT().Seek(int64(64), io.SeekStart).Return(int64(0), errIO),
					f.EXPECT().Close().Return(nil),
				)
			},
			kind: scanner.KindOffsetSeek,
		},
		{
			name: "offset seek short",
			expect: func(f *mocks.MockFile) {
				gomock.InOrder(
					f.EXPECT().Read(gomock.Any()).DoAndReturn(readFrom([]byte("MZ"))),
					f.EXPECT().Seek(int64(64), io.SeekStart).Return(int64(32), nil),
					f.EXPECT().Close().Return(nil),
				)
			},
			kind: scanner.KindOffsetSeek,
		},
		{
			// the file shrank between the size probe and the read
			name: "short window read",
			expect: func(f *mocks.MockFile) {
				gomock.InOrder(
					f.EXPECT().Read(gomock.Any()).DoAndReturn(readFrom([]byte("MZ"))),
					f.EXPECT().Seek(int64(64), io.SeekStart).Return(int64(64), nil),
					f.EXPECT().Read(gomock.Any()).DoAndReturn(readFrom([]byte{0xDE})),
					f.EXPECT().Read(gomock.Any()).Return(0, io.EOF),
					f.EXPECT().Close().Return(nil),
				)
			},
			kind: scanner.KindBufferRead,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newMocks(t, 4096)
			tc.expect(m.target)

			res, err := scanner.New(m.opener, nil).ScanFile("target.exe", testSignature(t))
			requireKind(t, err, tc.kind)
			require.False(t, res.Detected())
		})
	}
}

func TestScanFileCloseErrorKeepsVerdict(t *testing.T) {
	for _, window := range [][]byte{{0xDE, 0xAD}, {0x00, 0x00}} {
		m := newMocks(t, 4096)
		gomock.InOrder(
			m.target.EXPECT().Read(gomock.Any()).DoAndReturn(readFrom([]byte("MZ"))),
			m.target.EXPECT().Seek(int64(64), io.SeekStart).Return(int64(64), nil),
			m.target.EXPECT().Read(gomock.Any()).DoAndReturn(readFrom(window)),
			m.target.EXPECT().Close().Return(errIO),
		)

		vs := testSignature(t)
		res, err := scanner.New(m.opener, nil).ScanFile("target.exe", vs)
		require.NoError(t, err)
		require.Equal(t, vs.Match(window), res.Detected())
		requireKind(t, res.CloseErr, scanner.KindClose)
		require.ErrorIs(t, res.CloseErr, errIO)
	}
}

func TestScanFileConcurrent(t *testing.T) {
	sc := scanner.New(nil, nil)
	vs := testSignature(t)

	infected := writeTarget(t, peImage())
	clean := writeTarget(t, make([]byte, 4096))

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			res, err := sc.ScanFile(infected, vs)
			if err != nil {
				return err
			}
			if !res.Detected() {
				return errors.New("expected detection")
			}

			_, err = sc.ScanFile(clean, vs)
			if !errors.Is(err, scanner.KindNotPE) {
				return errors.New("expected not a PE file")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
