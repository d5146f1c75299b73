// Package dissect is a pure-Go dissection engine: it reads pcap and pcapng files with
// gopacket and renders the decoded layers as Wireshark-named field trees.
package dissect

import (
	"bufio"
	"capdissect/internal/models"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrUnsupported reports options that only the tshark engine understands.
var ErrUnsupported = errors.New("dissect: option not supported by the gopacket engine")

const pcapngMagic = 0x0A0D0D0A

// Options mirrors the tshark engine options so the CLI can hand both engines the same
// settings. The gopacket engine supports none of them.
type Options struct {
	DisplayFilter string
	Preferences   []string
	WLANKeys      []string
}

func (o Options) validate() error {
	switch {
	case o.DisplayFilter != "":
		return fmt.Errorf("%w: display filter", ErrUnsupported)
	case len(o.Preferences) > 0:
		return fmt.Errorf("%w: preferences", ErrUnsupported)
	case len(o.WLANKeys) > 0:
		return fmt.Errorf("%w: WLAN decryption keys", ErrUnsupported)
	}
	return nil
}

type packetReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Source decodes packets from one capture file.
type Source struct {
	name    string
	file    io.Closer
	packets *gopacket.PacketSource
	link    layers.LinkType
	count   int
}

// Open opens a pcap or pcapng file ("-" reads stdin) and detects its format from the
// magic number.
func Open(path string, opts Options, log *slog.Logger) (*Source, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open capture file %q: %w", path, err)
		}
	}

	src, err := NewSource(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.file = f
	log.Debug("opened capture", "file", path, "link_type", src.link.String())
	return src, nil
}

// NewSource decodes a capture read from r; name labels errors.
func NewSource(name string, r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}

	var pr packetReader
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		pr, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		pr, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}

	ps := gopacket.NewPacketSource(pr, pr.LinkType())
	ps.DecodeOptions = gopacket.DecodeOptions{NoCopy: true}
	return &Source{name: name, packets: ps, link: pr.LinkType()}, nil
}

// Next returns the next packet, or io.EOF at the end of the file.
func (s *Source) Next() (*models.Packet, error) {
	pkt, err := s.packets.NextPacket()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", s.name, err)
	}
	s.count++
	return Render(pkt, s.count), nil
}

// Close closes the underlying file.
func (s *Source) Close() error {
	if s.file == nil || s.file == os.Stdin {
		return nil
	}
	return s.file.Close()
}
