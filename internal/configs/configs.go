// Package configs contains the system configurations.
package configs

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type configData struct {
	ServerPort     int32  `json:"port"`
	DatabaseDSN    string `json:"database_dsn"`
	DatabaseDriver string `json:"database_driver"`
	PrivateKeyFile string `json:"private_key_file"`
}

// Config holds the system configuration.
type Config interface {
	ServerPort() int32
	DatabaseDSN() string
	DatabaseDriver() string
	PrivateKeyFile() string
	PrivateKey() rsa.PrivateKey
}

type defaultConfig struct {
	data       *configData
	privateKey *rsa.PrivateKey
}

func (c *defaultConfig) ServerPort() int32 {
	return c.data.ServerPort
}

func (c *defaultConfig) DatabaseDSN() string {
	return c.data.DatabaseDSN
}

func (c *defaultConfig) DatabaseDriver() string {
	return c.data.DatabaseDriver
}

func (c *defaultConfig) PrivateKeyFile() string {
	return c.data.PrivateKeyFile
}

func (c *defaultConfig) PrivateKey() rsa.PrivateKey {
	return *c.privateKey
}

func (c *defaultConfig) loadPrivateKey(configPath string) error {
	path := c.PrivateKeyFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Join(filepath.Dir(configPath), path)
	}
	pemFile, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	privatePem, _ := pem.Decode(pemFile)
	if privatePem == nil {
		return errors.New("the given private key is not a valid PEM file")
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(privatePem.Bytes)
	if err != nil {
		return err
	}
	c.privateKey = privateKey
	return nil
}

// applyEnvOverrides overrides file values with the environment, so deployments can keep
// credentials out of the config file. A .env file is honored when present.
func (c *defaultConfig) applyEnvOverrides() error {
	_ = godotenv.Load()
	if dsn := os.Getenv("CLINIC_DATABASE_DSN"); dsn != "" {
		c.data.DatabaseDSN = dsn
	}
	if driver := os.Getenv("CLINIC_DATABASE_DRIVER"); driver != "" {
		c.data.DatabaseDriver = driver
	}
	if port := os.Getenv("CLINIC_SERVER_PORT"); port != "" {
		parsedPort, err := strconv.ParseInt(port, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid CLINIC_SERVER_PORT: %w", err)
		}
		c.data.ServerPort = int32(parsedPort)
	}
	return nil
}

// Load loads the given configuration file.
func Load(configPath string) (Config, error) {
	data := &configData{}
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("an error occurred while loading config file: %w", err)
	}
	defer func() {
		_ = configFile.Close()
	}()
	err = json.NewDecoder(configFile).Decode(data)
	if err != nil {
		return nil, fmt.Errorf("an error occurred while parsing config file: %w", err)
	}
	configuration := &defaultConfig{data: data}
	if err = configuration.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if configuration.ServerPort() <= 0 {
		return nil, errors.New("the given server port is not valid")
	}
	if configuration.PrivateKeyFile() != "" {
		if err = configuration.loadPrivateKey(configPath); err != nil {
			return nil, err
		}
	}
	return configuration, nil
}

// MustLoad loads the given configuration file and if any error occurs, will panic.
func MustLoad(configPath string) Config {
	config, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return config
}
