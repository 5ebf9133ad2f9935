// Package geo превращает IP-адрес клиента в строку местоположения для статистики кликов.
package geo

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Unknown возвращается, когда местоположение определить не удалось
const Unknown = "Unknown"

type Locator interface {
	Locate(ip string) string
}

// StaticLocator не обращается к базе и всегда возвращает Unknown
type StaticLocator struct{}

func (StaticLocator) Locate(string) string {
	return Unknown
}

// MaxMindLocator ищет город и страну в базе MaxMind GeoLite2/GeoIP2 City
type MaxMindLocator struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

func NewMaxMindLocator(path string) (*MaxMindLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database %s: %w", path, err)
	}
	return &MaxMindLocator{reader: reader}, nil
}

// Locate возвращает "Город, CC" или Unknown для приватных, служебных и ненайденных адресов
func (l *MaxMindLocator) Locate(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return Unknown
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.reader == nil {
		return Unknown
	}

	record, err := l.reader.City(parsed)
	if err != nil || record.Country.IsoCode == "" {
		return Unknown
	}

	return fmt.Sprintf("%s, %s", record.City.Names["en"], record.Country.IsoCode)
}

func (l *MaxMindLocator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reader == nil {
		return nil
	}
	err := l.reader.Close()
	l.reader = nil
	return err
}
