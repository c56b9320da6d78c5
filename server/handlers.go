package server

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/redline"
	"github.com/tsawler/redline/batch"
	"github.com/tsawler/redline/format"
	"github.com/tsawler/redline/jobs"
)

// multipartMemory is the part of an upload kept in memory before spilling
// to temporary files.
const multipartMemory = 32 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf(
				"File(s) too large. Maximum total upload size is %s. Please upload fewer or smaller files.",
				humanBytes(s.config.MaxUploadBytes)))
			return
		}
		writeError(w, http.StatusBadRequest, "No files selected")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 || allUnnamed(headers) {
		writeError(w, http.StatusBadRequest, "No files selected")
		return
	}

	job := jobs.New(nil)
	names := []string{}
	for _, fh := range headers {
		if !format.Allowed(fh.Filename) {
			continue
		}
		name := format.SecureFilename(fh.Filename)
		if name == "" {
			continue
		}
		path := filepath.Join(s.config.UploadDir, format.JobFilename(job.ID, name))
		if err := saveUpload(fh, path); err != nil {
			s.log.WithError(err).WithField("job", job.ID).Error("saving upload failed")
			writeError(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
			return
		}
		job.Files = append(job.Files, jobs.File{Filename: name, Path: path})
		names = append(names, name)
	}
	job.Total = len(job.Files)

	if err := s.store.Create(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
		return
	}
	s.log.WithFields(logrus.Fields{"job": job.ID, "files": job.Total}).Info("upload accepted")

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"job_id":      job.ID,
		"total_files": job.Total,
		"files":       names,
	})
}

func allUnnamed(headers []*multipart.FileHeader) bool {
	for _, fh := range headers {
		if fh.Filename != "" {
			return false
		}
	}
	return true
}

func saveUpload(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	log := s.log.WithField("job", job.ID)

	job.Start()
	if err := s.store.Update(ctx, job); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Files are opened one at a time as the runner reaches them.
	inputs := make([]batch.Input, 0, len(job.Files))
	for _, f := range job.Files {
		inputs = append(inputs, batch.Input{Name: f.Filename, Path: f.Path})
	}

	var storeErr error
	runner := batch.NewRunner(batch.Config{
		Options:    s.config.Options,
		Logger:     log,
		DropOutput: true,
		Observer: func(index int, name string) {
			job.Begin(index, name)
			if err := s.store.Update(ctx, job); err != nil && storeErr == nil {
				storeErr = err
			}
		},
		Completed: func(index int, res batch.Result) {
			job.Record(s.saveResult(job, res))
			if err := s.store.Update(ctx, job); err != nil && storeErr == nil {
				storeErr = err
			}
			os.Remove(job.Files[index-1].Path)
		},
	})
	runner.Run(ctx, inputs)

	if storeErr != nil {
		s.fail(w, r, job, storeErr)
		return
	}
	job.Finish(nil)
	if err := s.store.Update(ctx, job); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  job.ID,
		"files":   job.Results,
		"message": fmt.Sprintf("Successfully processed %d files", job.Processed),
	})
}

// saveResult writes a converted document to the output directory and
// describes it for the job.
func (s *Server) saveResult(job *jobs.Job, res batch.Result) jobs.Result {
	out := jobs.Result{OriginalName: res.Name, DisplayName: res.DisplayName}
	if res.Err != nil {
		out.Status = jobs.StatusFailed
		out.Error = res.Err.Error()
		return out
	}

	internal := format.JobFilename(job.ID, res.DisplayName)
	if err := os.WriteFile(filepath.Join(s.config.OutputDir, internal), res.Output, 0o644); err != nil {
		out.Status = jobs.StatusFailed
		out.Error = err.Error()
		return out
	}
	out.WordFile = internal
	out.Status = jobs.StatusCompleted
	out.Warnings = redline.FormatWarnings(res.Warnings)
	return out
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, job *jobs.Job, err error) {
	job.Finish(err)
	_ = s.store.Update(r.Context(), job)
	s.log.WithError(err).WithField("job", job.ID).Error("processing failed")
	writeError(w, http.StatusInternalServerError, "Processing failed: "+err.Error())
}

func (s *Server) job(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	job, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return job, true
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":        job.ID,
		"status":        job.Status,
		"total":         job.Total,
		"processed":     job.Processed,
		"current_index": job.CurrentIndex,
		"current_file":  job.CurrentFile,
		"results":       job.Results,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	files, err := s.outputs(job.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := "processing"
	if len(files) > 0 {
		status = "completed"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":      job.ID,
		"status":      status,
		"files_count": len(files),
	})
}

// outputs lists the output files of a job, sorted.
func (s *Server) outputs(jobID string) ([]string, error) {
	entries, err := os.ReadDir(s.config.OutputDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), jobID+"_") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// validFilename rejects anything that is not a single path component.
func validFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if !validFilename(name) {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	f, err := os.Open(filepath.Join(s.config.OutputDir, name))
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	h := w.Header()
	noCache(h)
	h.Set("Content-Type", format.Detect(name).ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": format.StripJobPrefix(name),
	}))
	if _, err := io.Copy(w, f); err != nil {
		s.log.WithError(err).WithField("file", name).Warn("download interrupted")
	}
}

func (s *Server) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	files, err := s.outputs(job.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h := w.Header()
	noCache(h)
	h.Set("Content-Type", format.ZIP.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "extracted_documents_" + job.ID + ".zip",
	}))

	zw := zip.NewWriter(w)
	for _, name := range files {
		if err := addToZip(zw, filepath.Join(s.config.OutputDir, name), strings.TrimPrefix(name, job.ID+"_")); err != nil {
			s.log.WithError(err).WithField("job", job.ID).Error("building archive failed")
			return
		}
	}
	if err := zw.Close(); err != nil {
		s.log.WithError(err).WithField("job", job.ID).Error("building archive failed")
	}
}

func addToZip(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func humanBytes(n int64) string {
	const gib = 1 << 30
	const mib = 1 << 20
	switch {
	case n >= gib && n%gib == 0:
		return fmt.Sprintf("%dGB", n/gib)
	case n >= mib:
		return fmt.Sprintf("%dMB", n/mib)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
