//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	iocGAXES    = 0x80016a11
	iocGBUTTONS = 0x80016a12
	iocGNAME    = 0x80ff6a13

	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
	evINIT uint8 = 0x80

	eventSize = 8
)

type device struct {
	file    *os.File
	index   int
	name    string
	axes    uint8
	buttons uint8
}

// Open opens /dev/input/js<index>.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}
	var name [256]byte
	for _, q := range []struct {
		req uintptr
		ptr unsafe.Pointer
	}{
		{iocGAXES, unsafe.Pointer(&d.axes)},
		{iocGBUTTONS, unsafe.Pointer(&d.buttons)},
		{iocGNAME, unsafe.Pointer(&name)},
	} {
		if errno := d.ioctl(q.req, q.ptr); errno != 0 {
			f.Close()
			return nil, fmt.Errorf("ioctl js%d: %w", index, errno)
		}
	}
	if pos := bytes.IndexByte(name[:], 0); pos >= 0 {
		d.name = string(name[:pos])
	} else {
		d.name = string(name[:])
	}
	return d, nil
}

// DetectAndOpen opens the first available device from startIndex.
// It returns nil without error if there's none.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 256; index++ {
		d, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return d, err
	}
	return nil, nil
}

func (d *device) Close() error     { return d.file.Close() }
func (d *device) Index() int       { return d.index }
func (d *device) Name() string     { return d.name }
func (d *device) AxisCount() int   { return int(d.axes) }
func (d *device) ButtonCount() int { return int(d.buttons) }

// ReadEvent implements Device.
func (d *device) ReadEvent() (Event, error) {
	var buf [eventSize]byte
	if _, err := io.ReadFull(d.file, buf[:]); err != nil {
		return nil, err
	}
	return decodeEvent(buf[:]), nil
}

func (d *device) ioctl(req uintptr, ptr unsafe.Pointer) unix.Errno {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), req, uintptr(ptr))
	return errno
}

// struct js_event { __u32 time; __s16 value; __u8 type; __u8 number; }
func decodeEvent(buf []byte) Event {
	ev := rawEvent{
		value:  int16(binary.LittleEndian.Uint16(buf[4:6])),
		typ:    buf[6],
		number: buf[7],
	}
	switch ev.typ &^ evINIT {
	case evAXIS:
		return axisEvent{ev}
	case evBTN:
		return buttonEvent{ev}
	}
	return ev
}

type rawEvent struct {
	value  int16
	typ    uint8
	number uint8
}

func (e rawEvent) IsInit() bool { return e.typ&evINIT != 0 }
func (e rawEvent) Index() int   { return int(e.number) }

type axisEvent struct{ rawEvent }

func (e axisEvent) Value() int { return int(e.value) }

type buttonEvent struct{ rawEvent }

func (e buttonEvent) Pressed() bool { return e.value != 0 }
