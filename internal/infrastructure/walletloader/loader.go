package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/infrastructure/wallet"
)

// AccountFileLoader reads accounts from a text file with one
// "name,shortIdHex,evmAddress" entry per line. Blank lines and lines starting
// with # are ignored.
type AccountFileLoader struct {
	filePath      string
	session       port.SessionReader
	logger        port.Logger
	accountLogger *zap.Logger
}

// NewAccountFileLoader creates a loader whose accounts encode addresses for the
// network selected in session. Loaded accounts log through accountLogger.
func NewAccountFileLoader(filePath string, session port.SessionReader, logger port.Logger, accountLogger *zap.Logger) *AccountFileLoader {
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &AccountFileLoader{
		filePath:      filePath,
		session:       session,
		logger:        logger,
		accountLogger: accountLogger,
	}
}

// LoadAccounts parses the file. Malformed lines are skipped and logged.
func (l *AccountFileLoader) LoadAccounts() ([]*wallet.Account, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open account file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var accounts []*wallet.Account
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			l.logger.Warn("Skipping malformed account line", "file", l.filePath, "line_number", lineNum)
			continue
		}
		acc, err := wallet.NewAccount(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), l.session, l.accountLogger)
		if err != nil {
			l.logger.Warn("Skipping invalid account", "file", l.filePath, "line_number", lineNum, "error", err)
			continue
		}
		accounts = append(accounts, acc)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning account file %s: %w", l.filePath, err)
	}

	l.logger.Info("Accounts loaded from file", "count", len(accounts), "path", l.filePath)
	return accounts, nil
}
