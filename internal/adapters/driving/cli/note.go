package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

var (
	noteTags    []string
	noteContent string
	noteJSON    bool
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes in the vault",
}

var noteAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new note",
	Long: `Adds a note to the vault and embeds its content for semantic search.
If the embedding provider is unavailable the note is still saved and can
be indexed later with 'vaulted reindex'.`,
	Args: cobra.ExactArgs(1),
	RunE: runNoteAdd,
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes, newest first",
	RunE:  runNoteList,
}

var noteShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteShow,
}

var noteEditCmd = &cobra.Command{
	Use:   "edit [id] [title]",
	Short: "Replace a note's title and content",
	Args:  cobra.ExactArgs(2),
	RunE:  runNoteEdit,
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteDelete,
}

func init() {
	noteAddCmd.Flags().StringVarP(&noteContent, "content", "c", "", "note content (required)")
	noteAddCmd.Flags().StringSliceVarP(&noteTags, "tag", "t", nil, "tags (repeatable)")
	_ = noteAddCmd.MarkFlagRequired("content")

	noteEditCmd.Flags().StringVarP(&noteContent, "content", "c", "", "new note content (required)")
	noteEditCmd.Flags().StringSliceVarP(&noteTags, "tag", "t", nil, "tags (repeatable)")
	_ = noteEditCmd.MarkFlagRequired("content")

	noteListCmd.Flags().BoolVar(&noteJSON, "json", false, "output notes as JSON")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteShowCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteDeleteCmd)
	rootCmd.AddCommand(noteCmd)
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	note, err := noteService.Create(context.Background(), ownerID(), args[0], noteContent, noteTags)
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}

	cmd.Printf("Added note %d: %s\n", note.ID, note.Title)
	if !note.Embedding.Present() {
		cmd.Println("Note saved without embedding; run 'vaulted reindex' once the provider is available.")
	}
	return nil
}

func runNoteList(cmd *cobra.Command, _ []string) error {
	notes, err := noteService.List(context.Background(), ownerID())
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	if noteJSON {
		data, err := json.MarshalIndent(notes, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal notes: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(notes) == 0 {
		cmd.Println("No notes yet. Add one with 'vaulted note add'.")
		return nil
	}

	for i := range notes {
		indexed := " "
		if notes[i].Embedding.Present() {
			indexed = "*"
		}
		line := fmt.Sprintf("  [%d]%s %s", notes[i].ID, indexed, notes[i].Title)
		if len(notes[i].Tags) > 0 {
			line += "  (" + strings.Join(notes[i].Tags, ", ") + ")"
		}
		cmd.Println(line)
	}
	cmd.Printf("\n%d notes (* = indexed)\n", len(notes))
	return nil
}

func runNoteShow(cmd *cobra.Command, args []string) error {
	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	note, err := noteService.Get(context.Background(), ownerID(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("note %d not found", id)
		}
		return fmt.Errorf("get note: %w", err)
	}

	cmd.Printf("[%d] %s\n", note.ID, note.Title)
	if len(note.Tags) > 0 {
		cmd.Printf("Tags: %s\n", strings.Join(note.Tags, ", "))
	}
	cmd.Printf("Updated: %s\n\n", note.UpdatedAt.Format("2006-01-02 15:04"))
	cmd.Println(note.Content)
	return nil
}

func runNoteEdit(cmd *cobra.Command, args []string) error {
	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	note, err := noteService.Update(context.Background(), ownerID(), id, args[1], noteContent, noteTags)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("note %d not found", id)
		}
		return fmt.Errorf("edit note: %w", err)
	}

	cmd.Printf("Updated note %d: %s\n", note.ID, note.Title)
	return nil
}

func runNoteDelete(cmd *cobra.Command, args []string) error {
	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	if err := noteService.Delete(context.Background(), ownerID(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("note %d not found", id)
		}
		return fmt.Errorf("delete note: %w", err)
	}

	cmd.Printf("Deleted note %d\n", id)
	return nil
}

func parseNoteID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid note id %q", s)
	}
	return id, nil
}
