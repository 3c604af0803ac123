package box_test

import (
	"crypto/md5"
	"crypto/rand"
	stdtls "crypto/tls"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/losfair/retls/common/tls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	proxyServerName   = "proxy.example"
	backendServerName = "backend.example"
)

func writeKeyPair(t *testing.T, serverName string) (certificatePath string, keyPath string) {
	keyPem, certPem, err := tls.GenerateCertificate(nil, nil, time.Now, serverName, time.Now().Add(time.Hour))
	require.NoError(t, err)
	tempDir := t.TempDir()
	certificatePath = filepath.Join(tempDir, "cert.pem")
	keyPath = filepath.Join(tempDir, "key.pem")
	require.NoError(t, os.WriteFile(certificatePath, certPem, 0o644))
	require.NoError(t, os.WriteFile(keyPath, keyPem, 0o600))
	return
}

func listenBackend(t *testing.T, encrypted bool) net.Listener {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	if encrypted {
		// expired and issued for the wrong name: the proxy must not care
		keyPem, certPem, err := tls.GenerateCertificate(nil, nil, func() time.Time {
			return time.Now().Add(-48 * time.Hour)
		}, "unrelated.example", time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		certificate, err := stdtls.X509KeyPair(certPem, keyPem)
		require.NoError(t, err)
		listener = stdtls.NewListener(listener, &stdtls.Config{Certificates: []stdtls.Certificate{certificate}})
	}
	t.Cleanup(func() { listener.Close() })
	return listener
}

func dialProxy(address net.Addr) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return stdtls.DialWithDialer(dialer, "tcp", address.String(), &stdtls.Config{
		ServerName:         proxyServerName,
		InsecureSkipVerify: true,
	})
}

func testPingPongWithConn(t *testing.T, l net.Listener, cc func() (net.Conn, error)) error {
	c, err := cc()
	if err != nil {
		return err
	}
	defer c.Close()

	pingCh := make(chan []byte, 1)
	pongCh := make(chan []byte, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()

		buf := make([]byte, 4)
		if _, err := io.ReadFull(c, buf); err != nil {
			return
		}

		pingCh <- buf
		if _, err := c.Write([]byte("pong")); err != nil {
			return
		}
		// wait for the client to hang up
		io.Copy(io.Discard, c)
	}()

	if _, err := c.Write([]byte("ping")); err != nil {
		return err
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(c, buf); err != nil {
		return err
	}
	pongCh <- buf

	for range 2 {
		select {
		case recv := <-pingCh:
			assert.Equal(t, []byte("ping"), recv)
		case recv := <-pongCh:
			assert.Equal(t, []byte("pong"), recv)
		case <-time.After(10 * time.Second):
			return errors.New("timeout")
		}
	}
	return nil
}

type hashPair struct {
	sendHash map[int][]byte
	recvHash map[int][]byte
}

func testLargeDataWithConn(t *testing.T, l net.Listener, cc func() (net.Conn, error)) error {
	times := 100
	chunkSize := int64(64 * 1024)

	writeRandData := func(conn net.Conn) (map[int][]byte, error) {
		buf := make([]byte, chunkSize)
		hashMap := map[int][]byte{}
		for i := 0; i < times; i++ {
			if _, err := rand.Read(buf[1:]); err != nil {
				return nil, err
			}
			buf[0] = byte(i)

			hash := md5.Sum(buf)
			hashMap[i] = hash[:]

			if _, err := conn.Write(buf); err != nil {
				return nil, err
			}
		}
		return hashMap, nil
	}
	readRandData := func(conn net.Conn) (map[int][]byte, error) {
		hashMap := map[int][]byte{}
		buf := make([]byte, chunkSize)
		for i := 0; i < times; i++ {
			if _, err := io.ReadFull(conn, buf); err != nil {
				return nil, err
			}
			hash := md5.Sum(buf)
			hashMap[int(buf[0])] = hash[:]
		}
		return hashMap, nil
	}

	c, err := cc()
	if err != nil {
		return err
	}
	defer c.Close()

	pingCh := make(chan hashPair, 1)
	pongCh := make(chan hashPair, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()

		recvHash, err := readRandData(c)
		if err != nil {
			t.Log(err.Error())
			return
		}
		sendHash, err := writeRandData(c)
		if err != nil {
			t.Log(err.Error())
			return
		}
		pingCh <- hashPair{sendHash: sendHash, recvHash: recvHash}
		io.Copy(io.Discard, c)
	}()

	go func() {
		sendHash, err := writeRandData(c)
		if err != nil {
			t.Log(err.Error())
			return
		}
		recvHash, err := readRandData(c)
		if err != nil {
			t.Log(err.Error())
			return
		}
		pongCh <- hashPair{sendHash: sendHash, recvHash: recvHash}
	}()

	var serverPair, clientPair hashPair
	for range 2 {
		select {
		case serverPair = <-pingCh:
		case clientPair = <-pongCh:
		case <-time.After(20 * time.Second):
			return errors.New("timeout")
		}
	}
	assert.Equal(t, serverPair.recvHash, clientPair.sendHash)
	assert.Equal(t, serverPair.sendHash, clientPair.recvHash)
	return nil
}
