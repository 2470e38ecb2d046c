//go:build windows

package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

const (
	pcanDLLName     = "PCANBasic.dll"
	pcanLangEnglish = 0x09
)

// PCAN binds the four PCAN-Basic entry points for one USB channel.
type PCAN struct {
	handle  uint16
	bitrate Bitrate
	dllPath string

	dll              *windows.LazyDLL
	initProc         *windows.LazyProc
	uninitProc       *windows.LazyProc
	readProc         *windows.LazyProc
	writeProc        *windows.LazyProc
	getErrorTextProc *windows.LazyProc
}

func openPCAN(handle uint16, cfg Config) (Channel, error) {
	p := &PCAN{handle: handle, bitrate: cfg.Bitrate, dllPath: cfg.DLLPath}
	if err := p.loadDLL(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PCAN) Name() string {
	return fmt.Sprintf("PCAN handle=0x%02X bitrate=%s", p.handle, p.bitrate)
}

func (p *PCAN) Initialize() error {
	if p.initProc == nil {
		return statusErr("pcan initialize", StatusNoDriver)
	}
	// hardware type, io port and interrupt only apply to non plug-and-play channels
	status, _, _ := p.initProc.Call(
		uintptr(p.handle),
		uintptr(p.bitrate),
		0, 0, 0,
	)
	if err := p.statusErr("pcan initialize", Status(uint32(status))); err != nil {
		return err
	}
	log.Info().Str("channel", p.Name()).Msg("PCAN channel initialized")
	return nil
}

func (p *PCAN) Read() (Frame, error) {
	var f Frame
	if p.readProc == nil {
		return f, statusErr("pcan read", StatusNoDriver)
	}
	status, _, _ := p.readProc.Call(
		uintptr(p.handle),
		uintptr(unsafe.Pointer(&f)),
		0, // timestamp not requested
	)
	if err := p.statusErr("pcan read", Status(uint32(status))); err != nil {
		return Frame{}, err
	}
	logCANMessage("RX", p.Name(), f)
	return f, nil
}

func (p *PCAN) Write(f Frame) error {
	if p.writeProc == nil {
		return statusErr("pcan write", StatusNoDriver)
	}
	if f.Len > MaxDataLen {
		return statusErr("pcan write", StatusIllData)
	}
	status, _, _ := p.writeProc.Call(
		uintptr(p.handle),
		uintptr(unsafe.Pointer(&f)),
	)
	if err := p.statusErr("pcan write", Status(uint32(status))); err != nil {
		return err
	}
	logCANMessage("TX", p.Name(), f)
	return nil
}

func (p *PCAN) Uninitialize() error {
	if p.uninitProc == nil {
		return statusErr("pcan uninitialize", StatusNoDriver)
	}
	status, _, _ := p.uninitProc.Call(uintptr(p.handle))
	if err := p.statusErr("pcan uninitialize", Status(uint32(status))); err != nil {
		return err
	}
	log.Info().Str("channel", p.Name()).Msg("PCAN channel uninitialized")
	return nil
}

func (p *PCAN) statusErr(op string, code Status) error {
	if code == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Code: code, Text: p.errorText(code)}
}

func (p *PCAN) errorText(code Status) string {
	if p.getErrorTextProc == nil || p.getErrorTextProc.Find() != nil {
		return code.String()
	}
	var buf [256]byte
	ret, _, _ := p.getErrorTextProc.Call(
		uintptr(code),
		uintptr(pcanLangEnglish),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	if Status(uint32(ret)) != StatusOK {
		return code.String()
	}
	if n := bytes.IndexByte(buf[:], 0); n >= 0 {
		return string(buf[:n])
	}
	return string(buf[:])
}

func archDLLDir() string {
	if runtime.GOARCH == "386" {
		return "windows_x86"
	}
	return "windows_x64"
}

func pcanDLLCandidates(configured string) []string {
	var candidates []string
	seen := make(map[string]struct{})

	add := func(path string) {
		if path == "" {
			return
		}
		if _, exists := seen[path]; exists {
			return
		}
		seen[path] = struct{}{}
		candidates = append(candidates, path)
	}
	addFileOrDir := func(path string) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			add(filepath.Join(path, pcanDLLName))
		} else {
			add(path)
		}
	}

	if envPath := os.Getenv("PCAN_DLL_PATH"); envPath != "" {
		addFileOrDir(envPath)
	}
	if envDir := os.Getenv("PCAN_DLL_DIR"); envDir != "" {
		add(filepath.Join(envDir, pcanDLLName))
	}
	if configured != "" {
		addFileOrDir(configured)
	}

	add(filepath.Join(".", "DLLs", archDLLDir(), pcanDLLName))
	add(pcanDLLName)

	archSubdirs := []string{"Win64", "x64"}
	if runtime.GOARCH == "386" {
		archSubdirs = []string{"Win32", "x86"}
	}
	addInstallDir := func(dir string) {
		add(filepath.Join(dir, pcanDLLName))
		for _, archSub := range archSubdirs {
			add(filepath.Join(dir, archSub, pcanDLLName))
		}
	}

	if dir := peakInstallDir(); dir != "" {
		addInstallDir(dir)
	}

	programRoots := []string{
		os.Getenv("ProgramFiles"),
		os.Getenv("ProgramFiles(x86)"),
	}
	baseSubdirs := []string{"", "Redistributable", "Redistributables"}
	for _, root := range programRoots {
		if root == "" {
			continue
		}
		base := filepath.Join(root, "PEAK-System", "PCAN-Basic")
		for _, sub := range baseSubdirs {
			addInstallDir(filepath.Join(base, sub))
		}
	}

	return candidates
}

func (p *PCAN) loadDLL() error {
	loaded := make(map[string]*windows.LazyDLL)
	open := func(path string) (func(string) error, error) {
		dll := windows.NewLazyDLL(path)
		if err := dll.Load(); err != nil {
			return nil, err
		}
		loaded[path] = dll
		return func(proc string) error { return dll.NewProc(proc).Find() }, nil
	}

	dllPath, err := pickLibrary(pcanDLLName, pcanDLLCandidates(p.dllPath), open, pcanProcs)
	if err != nil {
		return err
	}
	dll := loaded[dllPath]
	p.dll = dll
	p.initProc = dll.NewProc("CAN_Initialize")
	p.uninitProc = dll.NewProc("CAN_Uninitialize")
	p.readProc = dll.NewProc("CAN_Read")
	p.writeProc = dll.NewProc("CAN_Write")
	p.getErrorTextProc = dll.NewProc("CAN_GetErrorText")
	log.Info().Str("path", dllPath).Msg("loaded PCAN-Basic library")
	return nil
}
