package bot

import (
	"reflect"
	"testing"
)

// TestParseCommand проверяет разбор команд с аргументами
func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		text      string
		cmd       string
		args      []string
		isCommand bool
	}{
		{"/start", "start", nil, true},
		{"/start ref_ABC123", "start", []string{"ref_ABC123"}, true},
		{"/buy 100 @durov", "buy", []string{"100", "@durov"}, true},
		{"/BUY 100", "buy", []string{"100"}, true},
		{"  /balance  ", "balance", nil, true},
		{"/buy@stars_bazar_bot 100", "buy", []string{"100"}, true},
		{"привет", "", nil, false},
		{"", "", nil, false},
		{"/", "", nil, false},
		{"/   ", "", nil, false},
		{"1", "", nil, false}, // выбор ячейки в минах — не команда
	}

	for _, tt := range tests {
		cmd, args, isCommand := p.ParseCommand(tt.text)
		if isCommand != tt.isCommand {
			t.Errorf("ParseCommand(%q): isCommand = %v, ожидалось %v", tt.text, isCommand, tt.isCommand)
			continue
		}
		if cmd != tt.cmd {
			t.Errorf("ParseCommand(%q): cmd = %q, ожидалось %q", tt.text, cmd, tt.cmd)
		}
		if !reflect.DeepEqual(args, tt.args) {
			t.Errorf("ParseCommand(%q): args = %v, ожидалось %v", tt.text, args, tt.args)
		}
	}
}
